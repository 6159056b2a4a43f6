package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carelane/hospital-platform/internal/admin"
	"github.com/carelane/hospital-platform/internal/api/router"
	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/availability"
	appconfig "github.com/carelane/hospital-platform/internal/config"
	"github.com/carelane/hospital-platform/internal/directory"
	"github.com/carelane/hospital-platform/internal/observability/metrics"
	"github.com/carelane/hospital-platform/internal/scheduling"
	"github.com/carelane/hospital-platform/internal/treatments"
	"github.com/carelane/hospital-platform/pkg/logging"
)

func main() {
	// .env is optional; deployed environments set real variables.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospital-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.ClinicTimezone,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.AuthSecret == "" {
		logger.Error("AUTH_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database not reachable", "error", err)
		os.Exit(1)
	}

	// database/sql handle for the dashboard aggregates.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	redisClient := buildRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	loc := cfg.Location()

	// Storage
	windows := availability.NewPostgresStore(pool)
	ledger := appointments.NewPostgresLedger(pool)
	recorder := treatments.NewPostgresRecorder(pool)
	registryRepo := directory.NewPostgresRegistry(pool, ledger, windows)

	// Scheduling service with optional Redis slot cache.
	slotCache := scheduling.NewSlotCache(redisClient, cfg.SlotCacheTTL, logger)
	schedulingService := scheduling.NewService(windows, ledger, slotCache, loc, bookingMetrics, logger)

	// Handlers
	directoryHandler := directory.NewHandler(registryRepo, logger)
	availabilityHandler := availability.NewHandler(windows, logger)
	appointmentsHandler := appointments.NewHandler(ledger, loc, logger)
	schedulingHandler := scheduling.NewHandler(schedulingService, logger)
	treatmentsHandler := treatments.NewHandler(recorder, logger)
	dashboardHandler := admin.NewDashboardHandler(sqlDB, logger)

	// Cancellations reopen slots, so they must drop the cached slot list.
	appointmentsHandler.OnSlotReleased(schedulingService.InvalidateDay)

	r := router.New(&router.Config{
		Logger:              logger,
		DirectoryHandler:    directoryHandler,
		AvailabilityHandler: availabilityHandler,
		AppointmentsHandler: appointmentsHandler,
		SchedulingHandler:   schedulingHandler,
		TreatmentsHandler:   treatmentsHandler,
		AdminDashboard:      dashboardHandler,
		AuthSecret:          cfg.AuthSecret,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PublicRatePerSecond: 10,
		PublicRateBurst:     20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildRedisClient returns nil when Redis is not configured or not
// reachable; the slot cache degrades to recomputing on every query.
func buildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
