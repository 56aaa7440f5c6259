package errors

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ErrorLogger writes errors to the structured log and keeps counters
type ErrorLogger struct {
	logger *slog.Logger
	stats  *ErrorStats
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	mu           sync.RWMutex
	TotalErrors  int64               `json:"total_errors"`
	ErrorsByType map[ErrorType]int64 `json:"errors_by_type"`
	StartTime    time.Time           `json:"start_time"`
	LastErrorAt  *time.Time          `json:"last_error_at,omitempty"`
}

// NewErrorLogger creates a new error logger
func NewErrorLogger(logger *slog.Logger) *ErrorLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorLogger{
		logger: logger,
		stats: &ErrorStats{
			ErrorsByType: make(map[ErrorType]int64),
			StartTime:    time.Now(),
		},
	}
}

// LogError logs an error with context
func (l *ErrorLogger) LogError(ctx context.Context, err error, fields map[string]interface{}) {
	errType := ErrorTypeServer
	level := slog.LevelError
	attrs := make([]any, 0, len(fields)*2+6)

	if customErr, ok := err.(*CustomError); ok {
		errType = customErr.Type
		attrs = append(attrs, "code", customErr.Code, "status", customErr.StatusCode)
		if customErr.StatusCode < 500 {
			level = slog.LevelWarn
		}
	}
	attrs = append(attrs, "type", string(errType), "error", err.Error())
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}

	l.logger.Log(ctx, level, "request failed", attrs...)
	l.record(errType)
}

func (l *ErrorLogger) record(errType ErrorType) {
	l.stats.mu.Lock()
	defer l.stats.mu.Unlock()

	now := time.Now()
	l.stats.TotalErrors++
	l.stats.ErrorsByType[errType]++
	l.stats.LastErrorAt = &now
}

// GetErrorStats returns error statistics
func (l *ErrorLogger) GetErrorStats() map[string]interface{} {
	l.stats.mu.RLock()
	defer l.stats.mu.RUnlock()

	byType := make(map[string]int64, len(l.stats.ErrorsByType))
	for k, v := range l.stats.ErrorsByType {
		byType[string(k)] = v
	}

	return map[string]interface{}{
		"total_errors":   l.stats.TotalErrors,
		"errors_by_type": byType,
		"uptime":         time.Since(l.stats.StartTime).String(),
	}
}
