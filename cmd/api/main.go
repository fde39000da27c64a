package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/cart"
	"github.com/MomoCodeByte/final-chekelen/internal/checkout"
	"github.com/MomoCodeByte/final-chekelen/internal/config"
	"github.com/MomoCodeByte/final-chekelen/internal/inventory"
	"github.com/MomoCodeByte/final-chekelen/internal/orders"
	"github.com/MomoCodeByte/final-chekelen/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "JWT_SECRET"); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "marketplace-api")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("marketplace-api")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var revoker auth.Revoker
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		revoker = auth.NewRedisRevoker(client)
	} else {
		logger.Warn("REDIS_URL not set, token revocation disabled")
	}

	checkoutMetrics, err := checkout.NewMetrics()
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	guard := inventory.NewGuard()
	engine := checkout.NewEngine(db, checkout.Options{
		LockCrops:   cfg.CheckoutLockCrops,
		EventsTopic: cfg.OrderEventsTopic,
	}, checkoutMetrics, logger)
	orderRepo := orders.NewOrderRepository(db, guard, orders.Options{
		StrictTransitions: cfg.OrderStrictTransitions,
		EventsTopic:       cfg.OrderEventsTopic,
	}, logger)

	router := newRouter(handlers{
		crops:    inventory.NewHandler(inventory.NewCropRepository(db), logger),
		cart:     cart.NewHandler(cart.NewCartRepository(db, guard), logger),
		checkout: checkout.NewHandler(engine, logger),
		orders:   orders.NewHandler(orderRepo, logger),
		logout:   auth.NewLogoutHandler(revoker, logger),
		metrics:  metricsHandler,
	}, auth.NewMiddleware(auth.NewTokenParser(cfg.JWTSecret), revoker, logger), logger)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, "marketplace-api",
			otelhttp.WithSpanNameFormatter(telemetry.SpanName),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", cfg.Port, "lock_crops", cfg.CheckoutLockCrops, "strict_transitions", cfg.OrderStrictTransitions)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
