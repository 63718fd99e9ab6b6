package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/app"
	"github.com/Freeeeeet/booking_engine/internal/clock"
	"github.com/Freeeeeet/booking_engine/internal/config"
	"github.com/Freeeeeet/booking_engine/internal/notify"
	"github.com/Freeeeeet/booking_engine/internal/repository"
	"github.com/Freeeeeet/booking_engine/internal/service"
	transport "github.com/Freeeeeet/booking_engine/internal/transport/http"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting booking engine",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("hold_ttl", cfg.HoldTTL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	// The in-process hub always runs; redis fan-out joins in when an
	// address is configured, so a single-node deployment needs no redis.
	hub := notify.NewHub()
	notifier := notify.Multi{hub}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		notifier = append(notifier, notify.NewRedisNotifier(redisClient, logger))
		logger.Info("Redis fan-out enabled", zap.String("addr", cfg.RedisAddr))
	}

	resourceRepo := repository.NewResourceRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	locks := service.NewKeyLock()
	systemClock := clock.NewSystem()

	availability := service.NewAvailabilityService(resourceRepo, reservationRepo, locks, systemClock, logger)
	reservations := service.NewReservationService(
		reservationRepo,
		resourceRepo,
		notifier,
		locks,
		systemClock,
		logger,
		service.WithHoldTTL(cfg.HoldTTL),
		service.WithAutoConfirm(cfg.AutoConfirm),
	)

	reaper := app.NewReaper(reservations, cfg.SweepInterval, logger)
	reaper.Start(ctx)
	defer reaper.Stop()

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      transport.NewRouter(availability, reservations, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Booking engine stopped")
}
