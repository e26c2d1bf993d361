package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacyBoundaryRoutes are the pre-v1 boundary endpoints kept for older
// map clients.
var legacyBoundaryRoutes = []DeprecatedRoute{{
	Path:        "/api/boundaries",
	SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
	Alternative: "/v1/boundaries",
}}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// WebSocket map sessions are registered before compression and the
	// ETag middleware, which both buffer the response body.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/map", websocket.New(MapSessionHandler(deps)))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestContextMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/boundaries", timeout.NewWithContext(ListBoundariesHandler(deps), requestTimeout))
	v1.Post("/boundaries", timeout.NewWithContext(CreateBoundaryHandler(deps), requestTimeout))
	v1.Delete("/boundaries", timeout.NewWithContext(DeleteBoundaryHandler(deps), requestTimeout))
	v1.Get("/boundaries/:id", timeout.NewWithContext(GetBoundaryHandler(deps), requestTimeout))
	v1.Delete("/boundaries/:id", timeout.NewWithContext(DeleteBoundaryHandler(deps), requestTimeout))
	v1.Get("/users", timeout.NewWithContext(ListUsersHandler(deps), requestTimeout))
	v1.Get("/users/:id", timeout.NewWithContext(GetUserHandler(deps), requestTimeout))
	v1.Post("/users/:id/location", timeout.NewWithContext(ReportLocationHandler(deps), requestTimeout))
	v1.Get("/search", timeout.NewWithContext(SearchPlacesHandler(deps), requestTimeout))

	// Pre-v1 boundary endpoints
	legacy := app.Group("/api", DeprecationMiddleware(legacyBoundaryRoutes))
	legacy.Get("/boundaries", LegacyListBoundariesHandler(deps))
	legacy.Post("/boundaries", CreateBoundaryHandler(deps))
	legacy.Delete("/boundaries", DeleteBoundaryHandler(deps))

	app.Post("/graphql", GraphQLHandler(deps))

	if err := SetupDocs(app, deps.Docs); err != nil {
		slog.Warn("api docs disabled", "error", err)
	}
}
