package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scheduling_backend/internal/crew"
	apphttp "scheduling_backend/internal/http"
	"scheduling_backend/internal/http/router"
	"scheduling_backend/internal/hubspot"
	"scheduling_backend/internal/scheduler"
	"scheduling_backend/internal/schedules"
	"scheduling_backend/internal/schedules/handler"
	"scheduling_backend/internal/zuper"
	"scheduling_backend/migrations"
	"scheduling_backend/platform/cache"
	"scheduling_backend/platform/config"
	"scheduling_backend/platform/db"
	"scheduling_backend/platform/logger"
	"scheduling_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env, cfg.LogLevel, "scheduling-api")
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	health := map[string]apphttp.HealthChecker{"database": pool}

	redisCache, closeCache := initCache(cfg, log)
	if closeCache != nil {
		defer closeCache()
		health["redis"] = redisCache
	}

	dispatcher, closeDispatcher := initDispatcher(cfg, log)
	if closeDispatcher != nil {
		defer closeDispatcher()
	}

	val := validator.New()

	// ========================================================================
	// Integrations
	// ========================================================================

	zuperClient := zuper.New(cfg, log)
	if !zuperClient.Configured() {
		log.Warn("ZUPER_BASE_URL or ZUPER_API_KEY not configured; confirmations will be rejected")
	}
	hubspotClient := hubspot.New(cfg, log)
	if !hubspotClient.Configured() {
		log.Warn("HUBSPOT_ACCESS_TOKEN not configured; CRM writeback disabled")
	}

	members, err := crew.LoadFile(cfg.GetCrewDirectoryPath())
	if err != nil {
		log.Error("failed to load crew directory", "error", err)
		panic("failed to load crew directory: " + err.Error())
	}
	var users crew.UserSearcher
	if zuperClient.Configured() {
		users = zuperClient
	}
	directory := crew.NewDirectory(members, users, redisCache, log)
	log.Info("crew directory loaded", "members", len(members))

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	schedulesModule := schedules.NewModule(pool, zuperClient, directory, hubspotClient, dispatcher, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  health,
		Modules: []apphttp.Module{schedulesModule},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCache(cfg *config.Config, log *logger.Logger) (*cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; crew lookups will not be cached")
		return nil, nil
	}

	c, err := cache.New(cfg)
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		return nil, nil
	}

	return c, func() {
		_ = c.Close()
	}
}

func initDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (handler.EffectDispatcher, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; confirmation notifications disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize effects queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
