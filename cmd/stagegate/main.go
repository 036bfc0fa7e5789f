package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stagegate-io/stagegate/internal/metrics"
	"github.com/stagegate-io/stagegate/internal/telemetry"
	"github.com/stagegate-io/stagegate/pkg/stagegate"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.Init("stagegate", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	configPath := os.Getenv("STAGEGATE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Create the service with default wiring:
	// - File-based config with hot-reload
	// - Audit trail from config (memory or SQLite)
	// - Slack/PagerDuty channels from config when their secrets are set
	svc, err := stagegate.New(
		stagegate.WithFileConfig(configPath),
		stagegate.WithLogger(logger),
		stagegate.WithMetrics(metrics.New()),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	// Start service
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping service...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Service shutdown complete")
}
