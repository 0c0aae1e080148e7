// cmd/session-gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"henry-gateway/internal/admin"
	"henry-gateway/internal/assistant"
	"henry-gateway/internal/common/config"
	"henry-gateway/internal/common/database"
	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/observability"
	"henry-gateway/internal/gateway"
	"henry-gateway/internal/pipeline"
	"henry-gateway/internal/refine"
	"henry-gateway/internal/session"
	"henry-gateway/internal/storage"
	"henry-gateway/internal/strengthen"
	"henry-gateway/internal/tooltip"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting session gateway...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Storage tiers ---
	backup := storage.NewPostgresTier(pg.GetDB())
	if err := backup.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("storage schema bootstrap failed", zap.Error(err))
	}
	primary := storage.NewRedisTier(rdb.GetClient())

	// --- Upstream clients ---
	assistantClient := assistant.NewClient(&assistant.Config{
		BaseURL:    cfg.Assistant.BaseURL,
		ChatPath:   cfg.Assistant.ChatPath,
		Timeout:    time.Duration(cfg.Assistant.Timeout) * time.Millisecond,
		MaxRetries: cfg.Assistant.MaxRetries,
	}, log)

	refineClient := refine.NewClient(&refine.Config{
		BaseURL: cfg.Assistant.BaseURL,
		Timeout: time.Duration(cfg.Assistant.Timeout) * time.Millisecond,
	}, log)

	strengthenClient := strengthen.NewClient(&strengthen.Config{
		BaseURL: cfg.Assistant.BaseURL,
		Timeout: time.Duration(cfg.Assistant.Timeout) * time.Millisecond,
	}, log)

	adminClient := admin.NewClient(&admin.Config{
		BaseURL: cfg.Admin.BaseURL,
		Timeout: time.Duration(cfg.Admin.Timeout) * time.Millisecond,
	}, log)

	zapLog.Info("All upstream clients initialized")

	// --- Session registry ---
	registry := session.NewRegistry(
		time.Duration(cfg.Engagement.SessionTTLMinutes)*time.Minute, log)

	handler := gateway.NewHandler(gateway.Deps{
		Registry:   registry,
		Primary:    primary,
		Backup:     backup,
		Chat:       assistantClient,
		Refiner:    refineClient,
		Feedback:   adminClient,
		Strengthen: strengthenClient,
		Admin:      adminClient,
		Aggregator: pipeline.NewAggregator(cfg.Engagement.GhostedAfterDays),
		Obs:        obs,
		Settings: session.Settings{
			HistoryCap:            cfg.Engagement.HistoryCap,
			StalledAfterDays:      cfg.Engagement.StalledAfterDays,
			WelcomeBackMinMinutes: cfg.Engagement.WelcomeBackMinMinutes,
			Tooltip: tooltip.Timings{
				InitialDelayMin: cfg.Engagement.Tooltip.InitialDelayMin,
				InitialDelayMax: cfg.Engagement.Tooltip.InitialDelayMax,
				DisplaySeconds:  cfg.Engagement.Tooltip.DisplaySeconds,
				IntervalMin:     cfg.Engagement.Tooltip.IntervalMin,
				IntervalMax:     cfg.Engagement.Tooltip.IntervalMax,
			},
		},
		Logger: log,
	})

	// --- Router ---
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/healthz"))

	handler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	registry.Shutdown(shutdownCtx)

	zapLog.Info("Session gateway stopped")
}
