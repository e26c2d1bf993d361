package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// UserRefresher triggers an out-of-cycle user snapshot.
type UserRefresher interface {
	RefreshUsers(ctx context.Context) error
}

// LocationService accepts position reports and applies them to the user
// directory.
type LocationService struct {
	users     ports.UserRepository
	publisher ports.EventPublisher
	refresher UserRefresher
}

// NewLocationService creates a new LocationService. publisher and
// refresher may be nil.
func NewLocationService(users ports.UserRepository, publisher ports.EventPublisher, refresher UserRefresher) *LocationService {
	return &LocationService{users: users, publisher: publisher, refresher: refresher}
}

// Report accepts a position from a client. With a broker configured the
// update is published and applied by the subscriber; otherwise it is
// applied directly.
func (s *LocationService) Report(ctx context.Context, update *domain.LocationUpdate) error {
	if update.Time.IsZero() {
		update.Time = time.Now().UTC()
	}
	if err := update.Validate(); err != nil {
		metrics.LocationUpdatesIngested.WithLabelValues("rejected").Inc()
		return err
	}
	if s.publisher == nil {
		return s.ProcessLocationUpdate(ctx, update)
	}
	if err := s.publisher.PublishLocation(ctx, update); err != nil {
		slog.WarnContext(ctx, "publish location, applying directly", "user", update.UserID, "error", err)
		return s.ProcessLocationUpdate(ctx, update)
	}
	return nil
}

// ProcessLocationUpdate stores a position and refreshes the user feed.
func (s *LocationService) ProcessLocationUpdate(ctx context.Context, update *domain.LocationUpdate) error {
	if update.Time.IsZero() {
		update.Time = time.Now().UTC()
	}
	if err := update.Validate(); err != nil {
		metrics.LocationUpdatesIngested.WithLabelValues("rejected").Inc()
		return err
	}

	if err := s.users.UpdateLocation(ctx, *update); err != nil {
		metrics.LocationUpdatesIngested.WithLabelValues("error").Inc()
		return fmt.Errorf("update location for %s: %w", update.UserID, err)
	}
	metrics.LocationUpdatesIngested.WithLabelValues("ok").Inc()

	if s.refresher != nil {
		if err := s.refresher.RefreshUsers(ctx); err != nil {
			slog.WarnContext(ctx, "refresh users", "error", err)
		}
	}
	return nil
}
