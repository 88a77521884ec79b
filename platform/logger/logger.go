// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for the queue delivery / request ID
	RequestIDKey contextKey = "request_id"
	// TenantIDKey is the context key for the tenant ID
	TenantIDKey contextKey = "tenant_id"
	// ContactIDKey is the context key for the contact being processed
	ContactIDKey contextKey = "contact_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id, tenant_id, and contact_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok && tenantID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("tenant_id", tenantID))}
	}

	if contactID, ok := ctx.Value(ContactIDKey).(string); ok && contactID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("contact_id", contactID))}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// BatchSummary logs the outcome of one processed batch. Emitted once per
// batch, never per item, to keep metric cardinality low.
func (l *Logger) BatchSummary(task string, total, succeeded, failed, dropped int, duration time.Duration) {
	l.Info("batch_processed",
		slog.String("task", task),
		slog.Int("total", total),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Int("dropped", dropped),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
}

// DispatchBlocked logs a dispatch that policy refused to execute.
func (l *Logger) DispatchBlocked(contactID, channel, reason string) {
	l.Info("dispatch_blocked",
		slog.String("contact_id", contactID),
		slog.String("channel", channel),
		slog.String("reason", reason),
	)
}

// CollaboratorDegraded logs a fallback taken because an external
// collaborator (classifier, generator, calendar) was unavailable.
func (l *Logger) CollaboratorDegraded(name string, err error) {
	l.Warn("collaborator_degraded",
		slog.String("collaborator", name),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
