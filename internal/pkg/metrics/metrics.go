package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smarttrack",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smarttrack",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Map view metrics
	ReconcileOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "mapview",
		Name:      "reconcile_ops_total",
		Help:      "Layer operations applied by the reconciler",
	}, []string{"kind", "op"})

	SnapshotsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "mapview",
		Name:      "snapshots_discarded_total",
		Help:      "Snapshots dropped because a newer one was already applied",
	}, []string{"kind"})

	DrawOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "mapview",
		Name:      "draw_outcomes_total",
		Help:      "Completed draw interactions by outcome",
	}, []string{"outcome"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "mapview",
		Name:      "events_dropped_total",
		Help:      "Map events dropped because the session queue was full",
	}, []string{"event"})

	ActiveMapSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smarttrack",
		Subsystem: "ws",
		Name:      "active_map_sessions",
		Help:      "Current number of connected map sessions",
	})

	// Snapshot feed metrics
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "feed",
		Name:      "fetches_total",
		Help:      "Snapshot fetches by collection and status",
	}, []string{"kind", "status"})

	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smarttrack",
		Subsystem: "feed",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of snapshot fetches",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind"})

	LocationUpdatesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "tracking",
		Name:      "location_updates_total",
		Help:      "Location updates received from devices",
	}, []string{"status"})

	// Geocoding
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "geocoder",
		Name:      "requests_total",
		Help:      "Upstream geocoding requests by status",
	}, []string{"status"})

	GeocodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "smarttrack",
		Subsystem: "geocoder",
		Name:      "request_duration_seconds",
		Help:      "Latency of upstream geocoding requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smarttrack",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smarttrack",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smarttrack",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "smarttrack",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
// The stat is taken as an interface so this package does not import pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
