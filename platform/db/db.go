// Package db opens the Postgres pool and applies migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"scheduling_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "scheduling_backend"

// NewPool connects to Postgres and verifies the connection with a ping.
// Non-positive pool sizes from cfg leave pgx's defaults in place.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if maxConns := cfg.GetDBMaxConns(); maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	if minConns := cfg.GetDBMinConns(); minConns > 0 && minConns <= poolConfig.MaxConns {
		poolConfig.MinConns = minConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
