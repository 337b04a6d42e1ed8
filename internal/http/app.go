package http

import (
	"context"

	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is a dependency the health check pings.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in main and turned into an engine by router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health maps a dependency name to its checker, e.g. "database".
	Health  map[string]HealthChecker
	Modules []Module
}
