package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"air-quality-api/internal/config"
	"air-quality-api/pkg/server"
)

// runTimeout bounds a single collection pass so a stuck feed cannot
// overlap the next scheduled run.
const runTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := server.NewContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Close()

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := container.CollectorService.Run(ctx); err != nil {
			container.Logger.WithField("error", err.Error()).Error("Collection run failed")
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Collector.Schedule, runOnce); err != nil {
		log.Fatalf("Invalid collector schedule %q: %v", cfg.Collector.Schedule, err)
	}

	// Collect immediately on startup, then on the schedule.
	runOnce()
	scheduler.Start()

	container.Logger.WithField("schedule", cfg.Collector.Schedule).Info("Collector started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down collector")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	container.Logger.Info("Collector exited")
}
