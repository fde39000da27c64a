package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MomoCodeByte/final-chekelen/internal/config"
	"github.com/MomoCodeByte/final-chekelen/internal/messaging"
	"github.com/MomoCodeByte/final-chekelen/internal/outbox"
	"github.com/MomoCodeByte/final-chekelen/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "KAFKA_BROKERS"); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "outbox-relay")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
	defer func() { _ = producer.Close() }()

	relay := outbox.NewRelay(db, producer, cfg.OrderEventsTopic, cfg.RelayBatchSize, cfg.RelayInterval, logger)

	logger.Info("starting outbox relay", "topic", cfg.OrderEventsTopic, "brokers", cfg.KafkaBrokers, "interval", cfg.RelayInterval.String(), "batch_size", cfg.RelayBatchSize)
	if err := relay.Run(ctx); err != nil {
		logger.Error("relay stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}
