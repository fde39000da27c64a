package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/config"
	"github.com/MomoCodeByte/final-chekelen/internal/messaging"
	"github.com/MomoCodeByte/final-chekelen/internal/notify"
	"github.com/MomoCodeByte/final-chekelen/internal/telemetry"
)

const dedupeWindow = 7 * 24 * time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "KAFKA_BROKERS", "SMTP_HOST", "SMTP_FROM"); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "farmer-notifier")
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

	mailer, err := notify.NewSMTPMailer(cfg.SMTP)
	if err != nil {
		logger.Error("failed to configure mailer", "error", err)
		os.Exit(1)
	}

	var deduper notify.Deduper
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		deduper = notify.NewRedisDeduper(client, dedupeWindow)
	} else {
		logger.Warn("REDIS_URL not set, redelivered events may notify twice")
	}

	handler := notify.NewHandler(notify.NewUserDirectory(db), mailer, deduper, logger)

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.OrderEventsTopic, "farmer-notifier", logger)
	defer func() { _ = consumer.Close() }()

	logger.Info("starting farmer notifier", "topic", cfg.OrderEventsTopic, "brokers", cfg.KafkaBrokers)
	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumer stopped")
}
