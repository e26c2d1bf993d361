package mapview

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

const defaultQueueSize = 64

type event struct {
	stamp uint64
	fn    func(ctx context.Context)
}

type pendingUsers struct {
	seq   uint64
	users []domain.User
}

type pendingBoundaries struct {
	seq        uint64
	boundaries []domain.Boundary
}

type pendingViewport struct {
	stamp uint64
	vp    domain.Viewport
}

// Session runs a Controller on a single goroutine. Events are handled to
// completion before the next one starts, so a pending name prompt holds
// back all other map interaction.
//
// Nothing that feeds a session blocks. Snapshots and viewport requests are
// kept in latest-value slots and drained by the loop; any other event is
// dropped with a warning when the queue is full.
type Session struct {
	ctrl   *Controller
	events chan event
	wake   chan struct{}
	done   chan struct{}
	stamp  atomic.Uint64
	logger *slog.Logger

	mu         sync.Mutex
	users      *pendingUsers
	boundaries *pendingBoundaries
	viewport   *pendingViewport
	drops      map[string]struct{}
}

// NewSession creates a session. Run must be called to mount the surface
// and start processing events.
func NewSession(factory ports.SurfaceFactory, prompter ports.Prompter, create BoundaryCreator, opts Options) *Session {
	s := &Session{
		events: make(chan event, defaultQueueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		drops:  make(map[string]struct{}),
	}
	opts.Schedule = func(fn func(ctx context.Context)) { s.post("draw", fn) }
	s.ctrl = NewController(factory, prompter, create, opts)
	s.logger = s.ctrl.logger
	return s
}

// Controller returns the session's controller. Only touch it from
// functions passed to Do.
func (s *Session) Controller() *Controller { return s.ctrl }

// Run mounts the surface and processes events until ctx is cancelled,
// then tears the surface down.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	if err := s.ctrl.Mount(ctx); err != nil {
		_ = s.ctrl.Close()
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return s.ctrl.Close()
		case <-s.wake:
			s.flush(math.MaxUint64)
		case ev := <-s.events:
			s.flush(ev.stamp)
			ev.fn(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// post queues fn without waiting. It reports false when the session has
// stopped or the queue is full.
func (s *Session) post(name string, fn func(ctx context.Context)) bool {
	if s.stopped() {
		return false
	}
	select {
	case s.events <- event{stamp: s.stamp.Add(1), fn: fn}:
		return true
	default:
		metrics.EventsDropped.WithLabelValues(name).Inc()
		s.logger.Warn("map event dropped, queue full", "event", name)
		return false
	}
}

// flush applies every pending slot. A viewport request is only applied
// if it was made before the event stamped before.
func (s *Session) flush(before uint64) {
	s.mu.Lock()
	users, boundaries := s.users, s.boundaries
	s.users, s.boundaries = nil, nil
	var drops []string
	for id := range s.drops {
		drops = append(drops, id)
	}
	clear(s.drops)
	vp := s.viewport
	if vp != nil && vp.stamp < before {
		s.viewport = nil
	} else {
		vp = nil
	}
	s.mu.Unlock()

	if users != nil {
		ops, err := s.ctrl.ApplyUsers(users.seq, users.users)
		s.logOps("users", users.seq, ops, err)
	}
	if boundaries != nil {
		ops, err := s.ctrl.ApplyBoundaries(boundaries.seq, boundaries.boundaries)
		s.logOps("boundaries", boundaries.seq, ops, err)
	}
	for _, id := range drops {
		ops, err := s.ctrl.RemoveBoundary(id)
		s.logOps("boundaries", 0, ops, err)
	}
	if vp != nil {
		if err := s.ctrl.SetViewport(vp.vp); err != nil {
			s.logger.Warn("set viewport", "error", err)
		}
	}
}

// Do runs fn on the session goroutine. Unlike the other methods it waits
// for queue space, so it must not be called from the session goroutine.
// It returns false if the session has already stopped.
func (s *Session) Do(fn func(ctx context.Context, c *Controller)) bool {
	if s.stopped() {
		return false
	}
	select {
	case s.events <- event{stamp: s.stamp.Add(1), fn: func(ctx context.Context) { fn(ctx, s.ctrl) }}:
		return true
	case <-s.done:
		return false
	}
}

// PushUsers stores a user snapshot for the loop. A newer snapshot that
// arrives before the loop gets to it replaces the older one.
func (s *Session) PushUsers(seq uint64, users []domain.User) {
	s.mu.Lock()
	if s.users == nil || seq == 0 || seq > s.users.seq {
		s.users = &pendingUsers{seq: seq, users: users}
	}
	s.mu.Unlock()
	s.signal()
}

// PushBoundaries stores a boundary snapshot for the loop.
func (s *Session) PushBoundaries(seq uint64, boundaries []domain.Boundary) {
	s.mu.Lock()
	if s.boundaries == nil || seq == 0 || seq > s.boundaries.seq {
		s.boundaries = &pendingBoundaries{seq: seq, boundaries: boundaries}
	}
	s.mu.Unlock()
	s.signal()
}

// DropBoundary marks a deleted boundary for removal. Drops are applied
// after any pending boundary snapshot.
func (s *Session) DropBoundary(id string) {
	s.mu.Lock()
	s.drops[id] = struct{}{}
	s.mu.Unlock()
	s.signal()
}

// RequestViewport asks for a viewport change. Only the latest request
// is kept.
func (s *Session) RequestViewport(vp domain.Viewport) {
	s.mu.Lock()
	s.viewport = &pendingViewport{stamp: s.stamp.Add(1), vp: vp}
	s.mu.Unlock()
	s.signal()
}

// FocusUser queues centering on a user.
func (s *Session) FocusUser(id string) {
	s.post("focus_user", func(context.Context) {
		if err := s.ctrl.FocusUser(id); err != nil {
			s.focusFailed("user", id, err)
		}
	})
}

// FocusBoundary queues fitting the map to a boundary.
func (s *Session) FocusBoundary(id string) {
	s.post("focus_boundary", func(context.Context) {
		if err := s.ctrl.FocusBoundary(id); err != nil {
			s.focusFailed("boundary", id, err)
		}
	})
}

// FocusPlace queues centering on a selected place.
func (s *Session) FocusPlace(p domain.LatLng) {
	s.post("select_place", func(context.Context) {
		if err := s.ctrl.FocusPlace(p); err != nil {
			s.logger.Warn("focus place", "error", err)
		}
	})
}

func (s *Session) focusFailed(kind, id string, err error) {
	s.logger.Debug("focus failed", "kind", kind, "id", id, "error", err)
	if errors.Is(err, domain.ErrNoLocation) && s.ctrl.Surface() != nil {
		_ = s.ctrl.Surface().Notify("info", "This user has not shared a location yet.")
	}
}

func (s *Session) logOps(kind string, seq uint64, ops Ops, err error) {
	if err != nil {
		s.logger.Warn("reconcile failed", "kind", kind, "seq", seq, "error", err)
		return
	}
	if ops.Total() > 0 {
		s.logger.Debug("reconciled", "kind", kind, "seq", seq,
			"added", ops.Added, "updated", ops.Updated, "removed", ops.Removed)
	}
}
