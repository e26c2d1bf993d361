package usecases

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// SnapshotSink receives sequenced snapshots. Implementations must not
// block; a map session keeps only the latest one until its loop is free.
type SnapshotSink interface {
	PushUsers(seq uint64, users []domain.User)
	PushBoundaries(seq uint64, boundaries []domain.Boundary)
}

// FeedOptions configure polling.
type FeedOptions struct {
	UserInterval     time.Duration
	BoundaryInterval time.Duration
}

// SnapshotFeed polls the user directory and boundary store and fans full
// snapshots out to subscribers.
//
// Every fetch takes its sequence number before it starts, so when two
// fetches overlap the one that began later wins at every subscriber, no
// matter which finishes first. A failed fetch keeps the previous snapshot.
type SnapshotFeed struct {
	users      ports.UserRepository
	boundaries ports.BoundaryRepository
	opts       FeedOptions

	seq atomic.Uint64

	mu            sync.Mutex
	sinks         map[uint64]SnapshotSink
	nextSink      uint64
	lastUsers     []domain.User
	lastUserSeq   uint64
	lastBounds    []domain.Boundary
	lastBoundsSeq uint64
}

// NewSnapshotFeed creates a feed. Zero intervals fall back to 5s for users
// and 30s for boundaries.
func NewSnapshotFeed(users ports.UserRepository, boundaries ports.BoundaryRepository, opts FeedOptions) *SnapshotFeed {
	if opts.UserInterval <= 0 {
		opts.UserInterval = 5 * time.Second
	}
	if opts.BoundaryInterval <= 0 {
		opts.BoundaryInterval = 30 * time.Second
	}
	return &SnapshotFeed{
		users:      users,
		boundaries: boundaries,
		opts:       opts,
		sinks:      make(map[uint64]SnapshotSink),
	}
}

// Subscribe registers a sink and immediately replays the latest snapshots
// it has. The returned func unsubscribes.
func (f *SnapshotFeed) Subscribe(sink SnapshotSink) func() {
	f.mu.Lock()
	f.nextSink++
	id := f.nextSink
	f.sinks[id] = sink
	users, userSeq := f.lastUsers, f.lastUserSeq
	bounds, boundsSeq := f.lastBounds, f.lastBoundsSeq
	f.mu.Unlock()

	if userSeq > 0 {
		sink.PushUsers(userSeq, users)
	}
	if boundsSeq > 0 {
		sink.PushBoundaries(boundsSeq, bounds)
	}

	return func() {
		f.mu.Lock()
		delete(f.sinks, id)
		f.mu.Unlock()
	}
}

// Subscribers returns the number of registered sinks.
func (f *SnapshotFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sinks)
}

// Run fetches both collections once and then polls until ctx is done.
func (f *SnapshotFeed) Run(ctx context.Context) {
	_ = f.RefreshUsers(ctx)
	_ = f.RefreshBoundaries(ctx)

	userTicker := time.NewTicker(f.opts.UserInterval)
	defer userTicker.Stop()
	boundaryTicker := time.NewTicker(f.opts.BoundaryInterval)
	defer boundaryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-userTicker.C:
			_ = f.RefreshUsers(ctx)
		case <-boundaryTicker.C:
			_ = f.RefreshBoundaries(ctx)
		}
	}
}

// RefreshUsers fetches and publishes a user snapshot now.
func (f *SnapshotFeed) RefreshUsers(ctx context.Context) error {
	seq := f.seq.Add(1)
	start := time.Now()
	users, err := f.users.List(ctx)
	metrics.FeedFetchDuration.WithLabelValues("users").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetches.WithLabelValues("users", "error").Inc()
		slog.WarnContext(ctx, "user snapshot fetch failed, keeping previous", "seq", seq, "error", err)
		return err
	}
	metrics.FeedFetches.WithLabelValues("users", "ok").Inc()

	f.mu.Lock()
	if seq <= f.lastUserSeq {
		f.mu.Unlock()
		return nil
	}
	f.lastUsers, f.lastUserSeq = slices.Clip(users), seq
	sinks := f.snapshotSinks()
	f.mu.Unlock()

	for _, s := range sinks {
		s.PushUsers(seq, users)
	}
	return nil
}

// RefreshBoundaries fetches and publishes a boundary snapshot now.
func (f *SnapshotFeed) RefreshBoundaries(ctx context.Context) error {
	seq := f.seq.Add(1)
	start := time.Now()
	boundaries, err := f.boundaries.List(ctx)
	metrics.FeedFetchDuration.WithLabelValues("boundaries").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetches.WithLabelValues("boundaries", "error").Inc()
		slog.WarnContext(ctx, "boundary snapshot fetch failed, keeping previous", "seq", seq, "error", err)
		return err
	}
	metrics.FeedFetches.WithLabelValues("boundaries", "ok").Inc()

	f.mu.Lock()
	if seq <= f.lastBoundsSeq {
		f.mu.Unlock()
		return nil
	}
	f.lastBounds, f.lastBoundsSeq = slices.Clip(boundaries), seq
	sinks := f.snapshotSinks()
	f.mu.Unlock()

	for _, s := range sinks {
		s.PushBoundaries(seq, boundaries)
	}
	return nil
}

// Users returns the latest user snapshot and its sequence.
func (f *SnapshotFeed) Users() ([]domain.User, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsers, f.lastUserSeq
}

// Boundaries returns the latest boundary snapshot and its sequence.
func (f *SnapshotFeed) Boundaries() ([]domain.Boundary, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBounds, f.lastBoundsSeq
}

// caller holds f.mu
func (f *SnapshotFeed) snapshotSinks() []SnapshotSink {
	out := make([]SnapshotSink, 0, len(f.sinks))
	for _, s := range f.sinks {
		out = append(out, s)
	}
	return out
}
