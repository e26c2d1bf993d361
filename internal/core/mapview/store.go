package mapview

import (
	"slices"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// Store holds the latest user and boundary snapshots.
//
// Each replacement carries the sequence number of the fetch that produced
// it. A replacement that is not newer than the last applied one for the
// same collection is dropped, so a slow fetch cannot overwrite a fresher
// snapshot. Sequence 0 is unsequenced and always applied.
//
// A merged boundary is pinned: a fetch that started before the boundary
// was saved may still be newer by sequence, so snapshots missing a pinned
// id keep it until one contains it or maxPinMisses snapshots in a row
// have left it out.
type Store struct {
	users       []domain.User
	boundaries  []domain.Boundary
	userSeq     uint64
	boundarySeq uint64
	pinned      map[string]int
}

const maxPinMisses = 2

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{pinned: make(map[string]int)}
}

// ReplaceUsers swaps in a new user snapshot. It reports false when the
// snapshot was stale and ignored.
func (s *Store) ReplaceUsers(seq uint64, users []domain.User) bool {
	if seq != 0 && seq <= s.userSeq {
		metrics.SnapshotsDiscarded.WithLabelValues(domain.KindMarker.String()).Inc()
		return false
	}
	if seq != 0 {
		s.userSeq = seq
	}
	s.users = slices.Clone(users)
	return true
}

// ReplaceBoundaries swaps in a new boundary snapshot. It reports false
// when the snapshot was stale and ignored.
func (s *Store) ReplaceBoundaries(seq uint64, boundaries []domain.Boundary) bool {
	if seq != 0 && seq <= s.boundarySeq {
		metrics.SnapshotsDiscarded.WithLabelValues(domain.KindPolygon.String()).Inc()
		return false
	}
	if seq != 0 {
		s.boundarySeq = seq
	}
	next := slices.Clone(boundaries)
	for id, misses := range s.pinned {
		if slices.ContainsFunc(next, func(x domain.Boundary) bool { return x.ID == id }) {
			delete(s.pinned, id)
			continue
		}
		prev, ok := s.Boundary(id)
		if !ok || misses+1 > maxPinMisses {
			delete(s.pinned, id)
			continue
		}
		s.pinned[id] = misses + 1
		next = append(next, prev)
	}
	s.boundaries = next
	return true
}

// MergeBoundary adds a freshly persisted boundary to the current snapshot,
// replacing any entry with the same id, and pins it.
func (s *Store) MergeBoundary(b domain.Boundary) {
	s.pinned[b.ID] = 0
	if i := slices.IndexFunc(s.boundaries, func(x domain.Boundary) bool { return x.ID == b.ID }); i >= 0 {
		s.boundaries[i] = b
		return
	}
	s.boundaries = append(s.boundaries, b)
}

// DropBoundary removes a boundary from the current snapshot.
func (s *Store) DropBoundary(id string) bool {
	delete(s.pinned, id)
	n := len(s.boundaries)
	s.boundaries = slices.DeleteFunc(s.boundaries, func(x domain.Boundary) bool { return x.ID == id })
	return len(s.boundaries) != n
}

// Users returns the current user snapshot.
func (s *Store) Users() []domain.User { return s.users }

// Boundaries returns the current boundary snapshot.
func (s *Store) Boundaries() []domain.Boundary { return s.boundaries }

// User looks up a user by id.
func (s *Store) User(id string) (domain.User, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Boundary looks up a boundary by id.
func (s *Store) Boundary(id string) (domain.Boundary, bool) {
	for _, b := range s.boundaries {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Boundary{}, false
}
