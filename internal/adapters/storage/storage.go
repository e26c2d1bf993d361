// Package storage opens the repository backend selected in configuration.
package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/smarttrack/internal/adapters/postgres"
	"github.com/samirrijal/smarttrack/internal/adapters/sqlite"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/config"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// Storage bundles the repositories of one backend.
type Storage struct {
	Users      ports.UserRepository
	Boundaries ports.BoundaryRepository

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks the backend is reachable.
func (s *Storage) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases the backend.
func (s *Storage) Close() { s.close() }

// Open connects to the configured driver. For postgres the pool gauges are
// refreshed until ctx is cancelled.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		return &Storage{
			Users:      sqlite.NewUserRepo(db),
			Boundaries: sqlite.NewBoundaryRepo(db),
			ping:       db.Ping,
			close:      db.Close,
		}, nil
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		slog.Info("using postgres storage", "host", cfg.Database.Host, "db", cfg.Database.DBName)
		go reportPoolStats(ctx, db)
		return &Storage{
			Users:      postgres.NewUserRepo(db),
			Boundaries: postgres.NewBoundaryRepo(db),
			ping:       db.Ping,
			close:      db.Close,
		}, nil
	}
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
