package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/smarttrack/internal/adapters/storage"
	"github.com/samirrijal/smarttrack/internal/pkg/config"
	"github.com/samirrijal/smarttrack/internal/pkg/logging"
	"github.com/samirrijal/smarttrack/internal/roster"
)

// Imports one or more user rosters (JSON or CSV) into the user directory.
//
//	ingestor roster.json [more.csv ...]
func main() {
	cfg, err := config.Load("smarttrack-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"roster.json"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	var total roster.Result
	for _, path := range paths {
		r, err := load(path)
		if err != nil {
			slog.Error("load roster", "path", path, "error", err)
			total.Failed++
			continue
		}

		res := roster.Import(ctx, store.Users, r, 4)
		slog.Info("roster imported", "source", r.Source,
			"imported", res.Imported, "skipped", res.Skipped, "failed", res.Failed)

		total.Imported += res.Imported
		total.Skipped += res.Skipped
		total.Failed += res.Failed
	}

	slog.Info("ingestion complete", "imported", total.Imported, "skipped", total.Skipped, "failed", total.Failed)
	if total.Failed > 0 {
		store.Close()
		os.Exit(1)
	}
}

func load(path string) (*roster.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return roster.Decode(path, f)
}
