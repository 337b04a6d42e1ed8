// Package logger provides structured logging for the API and the worker.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the inbound X-Request-ID.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated caller's user id.
	UserIDKey contextKey = "user_id"
)

// contextFields lists the context values copied onto every record by WithContext.
var contextFields = []contextKey{RequestIDKey, UserIDKey}

// Logger wraps slog.Logger with the service's event helpers.
type Logger struct {
	*slog.Logger
}

// New builds a logger for env. Development gets human-readable text at
// debug level; everything else gets JSON. level overrides the default
// when it names a slog level.
func New(env, level, service string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level, env)}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	base := slog.New(handler)
	if service != "" {
		base = base.With(slog.String("service", service))
	}
	return &Logger{Logger: base}
}

func parseLevel(level, env string) slog.Level {
	var l slog.Level
	if strings.TrimSpace(level) != "" && l.UnmarshalText([]byte(level)) == nil {
		return l
	}
	if strings.EqualFold(env, "development") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// WithContext returns a logger annotated with the request id and user id
// found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	for _, key := range contextFields {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// HTTPRequest logs a completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a request that ended in a server error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// SyncEvent logs a step of the schedule confirmation flow.
func (l *Logger) SyncEvent(event, recordID, scheduleType string, attrs ...any) {
	args := append([]any{
		slog.String("event", event),
		slog.String("record_id", recordID),
		slog.String("schedule_type", scheduleType),
	}, attrs...)
	l.Info("schedule_sync", args...)
}

// ExternalCallFailed logs a failed call to an upstream system.
func (l *Logger) ExternalCallFailed(system, operation string, err error) {
	l.Warn("external_call_failed",
		slog.String("system", system),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) RateLimited(clientIP, path string) {
	l.Warn("rate_limited",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// Discard returns a logger that drops every record. Intended for tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
