package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/smarttrack/internal/adapters/nats"
	"github.com/samirrijal/smarttrack/internal/adapters/storage"
	"github.com/samirrijal/smarttrack/internal/devicesim"
	"github.com/samirrijal/smarttrack/internal/pkg/config"
	"github.com/samirrijal/smarttrack/internal/pkg/logging"
)

// Publishes random-walk position reports for every online user until
// interrupted. The API instances pick them up from NATS.
func main() {
	interval := flag.Duration("interval", 3*time.Second, "time between position reports")
	maxStep := flag.Float64("max-step", 50, "largest move per report, in meters")
	flag.Parse()

	cfg, err := config.Load("smarttrack-simulator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	publisher, err := natsadapter.NewPublisher(nc)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}

	slog.Info("device simulator starting", "interval", interval.String(), "max_step_m", *maxStep)

	devicesim.New(store.Users, publisher, devicesim.Options{MaxStep: *maxStep}).Run(ctx, *interval)

	slog.Info("device simulator stopped")
}
