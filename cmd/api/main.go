package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/smarttrack/internal/adapters/http"
	natsadapter "github.com/samirrijal/smarttrack/internal/adapters/nats"
	"github.com/samirrijal/smarttrack/internal/adapters/nominatim"
	"github.com/samirrijal/smarttrack/internal/adapters/storage"
	"github.com/samirrijal/smarttrack/internal/adapters/valkey"
	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/mapview"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/core/usecases"
	"github.com/samirrijal/smarttrack/internal/pkg/config"
	"github.com/samirrijal/smarttrack/internal/pkg/logging"
	"github.com/samirrijal/smarttrack/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("smarttrack-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				_ = shutdown(flushCtx)
			}()
		}
	}

	// Storage
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	// Cache
	var cache ports.CacheService
	var cachePinger http.Pinger
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache, cachePinger = vc, vc
		}
	}

	// NATS
	var natsConn *nats.Conn
	var publisher ports.EventPublisher
	var subscriber *natsadapter.Subscriber
	if cfg.NATS.URL != "" {
		natsConn, err = natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer natsConn.Close()
			if p, err := natsadapter.NewPublisher(natsConn); err != nil {
				slog.Warn("nats publisher unavailable", "error", err)
			} else {
				publisher = p
			}
			if s, err := natsadapter.NewSubscriber(natsConn); err != nil {
				slog.Warn("nats subscriber unavailable", "error", err)
			} else {
				subscriber = s
				defer s.Close()
			}
		}
	}

	// Use cases
	feed := usecases.NewSnapshotFeed(store.Users, store.Boundaries, usecases.FeedOptions{
		UserInterval:     cfg.Feed.UserInterval,
		BoundaryInterval: cfg.Feed.BoundaryInterval,
	})
	boundarySvc := usecases.NewBoundaryService(store.Boundaries, publisher, cache, feed)
	userSvc := usecases.NewUserService(store.Users)
	locationSvc := usecases.NewLocationService(store.Users, publisher, feed)

	var searchSvc *usecases.SearchService
	if cfg.Geocoder.Enabled {
		searchSvc = usecases.NewSearchService(nominatim.New(nominatim.Config{
			BaseURL:       cfg.Geocoder.BaseURL,
			UserAgent:     cfg.Geocoder.UserAgent,
			Email:         cfg.Geocoder.Email,
			Timeout:       cfg.Geocoder.Timeout,
			RatePerSecond: cfg.Geocoder.RatePerSecond,
		}), cache)
	}

	if subscriber != nil {
		if err := subscriber.SubscribeLocations(ctx, locationSvc.ProcessLocationUpdate); err != nil {
			slog.Warn("subscribe locations", "error", err)
		}
		err := subscriber.SubscribeBoundaryEvents(ctx, func(ctx context.Context, ev *domain.BoundaryEvent) error {
			slog.DebugContext(ctx, "boundary event", "type", ev.Type, "id", ev.ID)
			return feed.RefreshBoundaries(ctx)
		})
		if err != nil {
			slog.Warn("subscribe boundary events", "error", err)
		}
	}

	go feed.Run(ctx)

	deps := &http.Dependencies{
		Boundaries: boundarySvc,
		Users:      userSvc,
		Locations:  locationSvc,
		Search:     searchSvc,
		Feed:       feed,
		Map: http.MapOptions{
			Map: mapview.Options{
				Initial: domain.Viewport{
					Center: domain.LatLng{Lat: cfg.Map.InitialLat, Lng: cfg.Map.InitialLng},
					Zoom:   cfg.Map.InitialZoom,
				},
				FocusZoom:  cfg.Map.FocusZoom,
				SearchZoom: cfg.Map.SearchZoom,
				Reconciler: mapview.ReconcilerOptions{
					ReplaceChangedBoundaries: cfg.Map.ReplaceChangedBoundaries,
				},
				Logger: logger,
			},
			PromptTimeout: cfg.Map.PromptTimeout,
			SearchDelay:   cfg.Map.SearchDelay,
			PingInterval:  cfg.Map.PingInterval,
		},
		Docs: http.DocsOptions{
			Disabled: !cfg.Docs.Enabled,
			SpecPath: cfg.Docs.SpecPath,
			Title:    cfg.Docs.Title,
		},
		NATS:  natsConn,
		DB:    store,
		Cache: cachePinger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SmartTrack API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
