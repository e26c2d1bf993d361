package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/usecases"
)

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", IsOnline: true, Latitude: ptr(28.6139), Longitude: ptr(77.209)},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", IsOnline: true, Latitude: ptr(28.6229), Longitude: ptr(77.219)},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com"},
	}
}

func TestUserService_Filter(t *testing.T) {
	repo := &mockUserRepo{listFn: func(ctx context.Context) ([]domain.User, error) { return sampleUsers(), nil }}
	svc := usecases.NewUserService(repo)

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"JOHN", []string{"1", "3"}},
		{"jane@", []string{"2"}},
		{"  smith ", []string{"2"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		got, err := svc.Filter(context.Background(), tt.term)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("term %q: expected %d users, got %d", tt.term, len(tt.want), len(got))
			continue
		}
		for i, u := range got {
			if u.ID != tt.want[i] {
				t.Errorf("term %q: position %d expected %s, got %s", tt.term, i, tt.want[i], u.ID)
			}
		}
	}
}

func TestUserService_OnlineCount(t *testing.T) {
	repo := &mockUserRepo{listFn: func(ctx context.Context) ([]domain.User, error) { return sampleUsers(), nil }}
	svc := usecases.NewUserService(repo)

	n, err := svc.OnlineCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 online, got %d", n)
	}
}

func TestUserService_Get(t *testing.T) {
	repo := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Name: "John Doe"}, nil
		},
	}
	svc := usecases.NewUserService(repo)

	u, err := svc.Get(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "1" {
		t.Errorf("expected id 1, got %s", u.ID)
	}
}
