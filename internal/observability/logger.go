// Package observability holds logging and Prometheus instrumentation shared
// by the binaries.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a JSON *slog.Logger at the given level and installs it as
// the process default. Level is one of debug, info, warn, error
// (case-insensitive); anything else means info.
func NewLogger(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
