// Package log provides structured logging for go-fishtank.
// It wraps slog so every component logs with the same handler and level.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps a level name to a slog level.
// Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New builds a logger writing to w.
// format is "json" or "text"; anything else is text.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init initializes the global logger. Only the first call has an effect.
// JSON output is also forced when GO_ENV=production.
func Init(level, format string) {
	once.Do(func() {
		if os.Getenv("GO_ENV") == "production" {
			format = "json"
		}
		logger = New(os.Stdout, level, format)
		slog.SetDefault(logger)
	})
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info", "text")
	}
	return logger
}

// Component returns a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}
