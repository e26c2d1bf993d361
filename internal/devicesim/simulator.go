// Package devicesim emits synthetic position reports for online users so
// a map can be exercised without real devices.
package devicesim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

const metersPerDegree = 111_320.0

// Reporter receives simulated position reports.
type Reporter interface {
	PublishLocation(ctx context.Context, update *domain.LocationUpdate) error
}

// Options configure a Simulator.
type Options struct {
	// MaxStep is the largest distance in meters a user moves per tick.
	MaxStep float64
	// Rand drives movement. Nil uses a time-seeded source.
	Rand *rand.Rand
	Now  func() time.Time
}

// Simulator random-walks every online user with a known position.
type Simulator struct {
	users    ports.UserRepository
	reporter Reporter
	opts     Options
}

// New creates a simulator.
func New(users ports.UserRepository, reporter Reporter, opts Options) *Simulator {
	if opts.MaxStep <= 0 {
		opts.MaxStep = 50
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Simulator{users: users, reporter: reporter, opts: opts}
}

// Step moves p by dist meters on the given bearing (radians, clockwise
// from north), clamping to valid coordinates.
func Step(p domain.LatLng, dist, bearing float64) domain.LatLng {
	lat := p.Lat + dist*math.Cos(bearing)/metersPerDegree
	lng := p.Lng
	if c := math.Cos(p.Lat * math.Pi / 180); c > 1e-9 {
		lng += dist * math.Sin(bearing) / (metersPerDegree * c)
	}
	lat = math.Max(-90, math.Min(90, lat))
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return domain.LatLng{Lat: lat, Lng: lng}
}

// Tick reports one new position per eligible user and returns how many
// were sent.
func (s *Simulator) Tick(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var sent int
	for _, u := range users {
		pos, ok := u.Location()
		if !ok || !u.IsOnline {
			continue
		}
		next := Step(pos, s.opts.Rand.Float64()*s.opts.MaxStep, s.opts.Rand.Float64()*2*math.Pi)
		update := &domain.LocationUpdate{
			UserID:    u.ID,
			Latitude:  next.Lat,
			Longitude: next.Lng,
			IsOnline:  true,
			Time:      s.opts.Now().UTC(),
		}
		if err := s.reporter.PublishLocation(ctx, update); err != nil {
			slog.WarnContext(ctx, "publish simulated location", "user", u.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Run ticks every interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := s.Tick(ctx); err != nil {
			slog.WarnContext(ctx, "simulator tick failed", "error", err)
		} else {
			slog.DebugContext(ctx, "simulated positions sent", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
