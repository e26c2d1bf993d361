package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/smarttrack/internal/adapters/wsmap"
	"github.com/samirrijal/smarttrack/internal/core/mapview"
	"github.com/samirrijal/smarttrack/internal/core/usecases"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MapOptions configure the map sessions served on /ws/map.
type MapOptions struct {
	Map           mapview.Options
	PromptTimeout time.Duration
	SearchDelay   time.Duration
	PingInterval  time.Duration
}

func (o MapOptions) client() wsmap.ClientOptions {
	return wsmap.ClientOptions{
		Map:           o.Map,
		PromptTimeout: o.PromptTimeout,
		SearchDelay:   o.SearchDelay,
	}
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Boundaries *usecases.BoundaryService
	Users      *usecases.UserService
	Locations  *usecases.LocationService
	Search     *usecases.SearchService
	Feed       *usecases.SnapshotFeed
	Map        MapOptions
	Docs       DocsOptions

	NATS  *nats.Conn
	DB    Pinger
	Cache Pinger
}
