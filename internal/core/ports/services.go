package ports

import (
	"context"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishBoundaryCreated(ctx context.Context, b *domain.Boundary) error
	PublishBoundaryDeleted(ctx context.Context, id string) error
	PublishLocation(ctx context.Context, update *domain.LocationUpdate) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLocations(ctx context.Context, handler func(ctx context.Context, update *domain.LocationUpdate) error) error
	SubscribeBoundaryEvents(ctx context.Context, handler func(ctx context.Context, event *domain.BoundaryEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves free-text place queries to candidate coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}
