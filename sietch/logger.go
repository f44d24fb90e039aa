package sietch

import (
	"context"
	"log/slog"
	"time"
)

// QueryLogger defines the interface for logging repository operations
type QueryLogger interface {
	// LogQuery logs a statement execution with timing and error information
	LogQuery(ctx context.Context, operation string, query string, args []any, duration time.Duration, err error)

	// LogOperation logs a high-level repository operation
	LogOperation(ctx context.Context, operation string, entityType string, duration time.Duration, err error)
}

// SlogLogger reports statements to a *slog.Logger.
// Successful statements go to Debug, failures to Error.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a query logger on top of logger (slog.Default() when nil)
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger.With("component", "sietch")}
}

// LogQuery implements QueryLogger
func (l *SlogLogger) LogQuery(ctx context.Context, operation string, query string, args []any, duration time.Duration, err error) {
	if err != nil {
		l.logger.ErrorContext(ctx, "query failed",
			"operation", operation, "query", query, "args", args, "duration", duration, "error", err)
		return
	}
	l.logger.DebugContext(ctx, "query",
		"operation", operation, "query", query, "args", args, "duration", duration)
}

// LogOperation implements QueryLogger
func (l *SlogLogger) LogOperation(ctx context.Context, operation string, entityType string, duration time.Duration, err error) {
	if err != nil {
		l.logger.ErrorContext(ctx, "operation failed",
			"operation", operation, "entity", entityType, "duration", duration, "error", err)
		return
	}
	l.logger.DebugContext(ctx, "operation",
		"operation", operation, "entity", entityType, "duration", duration)
}

// NoOpLogger is a logger that does nothing (useful for disabling logging)
type NoOpLogger struct{}

// NewNoOpLogger creates a no-op logger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogQuery implements QueryLogger
func (l *NoOpLogger) LogQuery(context.Context, string, string, []any, time.Duration, error) {}

// LogOperation implements QueryLogger
func (l *NoOpLogger) LogOperation(context.Context, string, string, time.Duration, error) {}

// LoggableRepository is an optional interface for repositories that support logging
type LoggableRepository interface {
	// SetLogger sets the query logger for this repository
	SetLogger(logger QueryLogger)

	// GetLogger returns the current query logger
	GetLogger() QueryLogger
}

// logOperation is a helper to log an operation with timing
func logOperation(ctx context.Context, logger QueryLogger, operation string, entityType string, start time.Time, err error) {
	if logger != nil {
		logger.LogOperation(ctx, operation, entityType, time.Since(start), err)
	}
}

// logQuery is a helper to log a query with timing
func logQuery(ctx context.Context, logger QueryLogger, operation string, query string, args []any, start time.Time, err error) {
	if logger != nil {
		logger.LogQuery(ctx, operation, query, args, time.Since(start), err)
	}
}
