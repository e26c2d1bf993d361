package mapview_test

import (
	"testing"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/mapview"
)

func TestStore_RejectsStaleSnapshots(t *testing.T) {
	s := mapview.NewStore()

	if !s.ReplaceUsers(2, []domain.User{user("new", 1, 1)}) {
		t.Fatal("expected seq 2 to apply")
	}
	if s.ReplaceUsers(1, []domain.User{user("old", 1, 1)}) {
		t.Error("expected seq 1 to be rejected after seq 2")
	}
	if s.ReplaceUsers(2, nil) {
		t.Error("expected a repeated seq to be rejected")
	}
	if _, ok := s.User("new"); !ok {
		t.Error("fresh snapshot was overwritten")
	}
}

func TestStore_UnsequencedAlwaysApplies(t *testing.T) {
	s := mapview.NewStore()
	_ = s.ReplaceBoundaries(5, []domain.Boundary{square("a", "A")})

	if !s.ReplaceBoundaries(0, []domain.Boundary{square("b", "B")}) {
		t.Fatal("expected unsequenced snapshot to apply")
	}
	if s.ReplaceBoundaries(4, nil) {
		t.Error("unsequenced snapshot must not reset the sequence")
	}
	if _, ok := s.Boundary("b"); !ok {
		t.Error("expected boundary b")
	}
}

func TestStore_CollectionsSequencedIndependently(t *testing.T) {
	s := mapview.NewStore()
	_ = s.ReplaceUsers(10, nil)

	if !s.ReplaceBoundaries(1, []domain.Boundary{square("a", "A")}) {
		t.Error("boundary sequence should not depend on users")
	}
}

func TestStore_MergeAndDropBoundary(t *testing.T) {
	s := mapview.NewStore()
	_ = s.ReplaceBoundaries(1, []domain.Boundary{square("a", "A")})

	s.MergeBoundary(square("b", "B"))
	renamed := square("a", "A2")
	s.MergeBoundary(renamed)

	if len(s.Boundaries()) != 2 {
		t.Fatalf("expected 2 boundaries, got %d", len(s.Boundaries()))
	}
	if b, _ := s.Boundary("a"); b.Name != "A2" {
		t.Errorf("expected merged name A2, got %q", b.Name)
	}

	if !s.DropBoundary("a") {
		t.Error("expected drop to report true")
	}
	if s.DropBoundary("a") {
		t.Error("expected second drop to report false")
	}
	if len(s.Boundaries()) != 1 {
		t.Errorf("expected 1 boundary, got %d", len(s.Boundaries()))
	}
}

func TestStore_SnapshotIsCopied(t *testing.T) {
	s := mapview.NewStore()
	users := []domain.User{user("1", 1, 1)}
	_ = s.ReplaceUsers(1, users)

	users[0].ID = "mutated"
	if _, ok := s.User("1"); !ok {
		t.Error("store should not alias the caller's slice")
	}
}

func TestStore_MergedBoundarySurvivesOlderFetch(t *testing.T) {
	s := mapview.NewStore()
	_ = s.ReplaceBoundaries(1, []domain.Boundary{square("a", "A")})

	// seq 2 was fetched before "b" was saved but lands after the merge.
	s.MergeBoundary(square("b", "B"))
	if !s.ReplaceBoundaries(2, []domain.Boundary{square("a", "A")}) {
		t.Fatal("expected seq 2 to apply")
	}
	if _, ok := s.Boundary("b"); !ok {
		t.Fatal("merged boundary was removed by an older fetch")
	}

	// Once a snapshot carries it the pin is released.
	_ = s.ReplaceBoundaries(3, []domain.Boundary{square("a", "A"), square("b", "B")})
	_ = s.ReplaceBoundaries(4, []domain.Boundary{square("a", "A")})
	if _, ok := s.Boundary("b"); ok {
		t.Error("expected b to go once snapshots stopped including it")
	}
}

func TestStore_PinnedBoundaryExpires(t *testing.T) {
	s := mapview.NewStore()
	s.MergeBoundary(square("b", "B"))

	_ = s.ReplaceBoundaries(1, nil)
	_ = s.ReplaceBoundaries(2, nil)
	if _, ok := s.Boundary("b"); !ok {
		t.Fatal("expected b to be kept for two snapshots")
	}
	_ = s.ReplaceBoundaries(3, nil)
	if _, ok := s.Boundary("b"); ok {
		t.Error("expected b to be dropped after repeated misses")
	}
}

func TestStore_DropUnpins(t *testing.T) {
	s := mapview.NewStore()
	s.MergeBoundary(square("b", "B"))
	s.DropBoundary("b")

	_ = s.ReplaceBoundaries(1, nil)
	if _, ok := s.Boundary("b"); ok {
		t.Error("dropped boundary came back")
	}
}
