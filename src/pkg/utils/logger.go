package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a new logger instance
func NewLogger() *slog.Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo creates a logger writing to w. Level and format come from
// CASCONTACTS_LOG_LEVEL and CASCONTACTS_LOG_FORMAT.
func NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(os.Getenv("CASCONTACTS_LOG_LEVEL")),
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("CASCONTACTS_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, info when unknown
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
