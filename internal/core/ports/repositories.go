package ports

import (
	"context"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// BoundaryRepository persists boundaries.
type BoundaryRepository interface {
	// List returns all boundaries, newest first.
	List(ctx context.Context) ([]domain.Boundary, error)
	GetByID(ctx context.Context, id string) (*domain.Boundary, error)
	// Create stores a normalized draft and returns it with a server-assigned id.
	Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error)
	// Delete removes a boundary. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// UserRepository persists tracked users.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// UpdateLocation records a position report. Returns domain.ErrNotFound
	// for an unknown user.
	UpdateLocation(ctx context.Context, update domain.LocationUpdate) error
}
