// Package telemetry holds the process-wide logger and Prometheus metrics.
package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// Init installs a text logger on stderr at the given level.
func Init(level slog.Level) {
	InitWriter(os.Stderr, level)
}

// InitWriter installs a text logger writing to w.
func InitWriter(w io.Writer, level slog.Level) {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	logger.Store(l)
}

// L returns the process logger, initializing it at info level on first use.
func L() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	Init(slog.LevelInfo)
	return logger.Load()
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
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
