// Package logger constructs the slog logger used by trendd from the
// configured level and format.
package logger

import (
	"log/slog"
	"os"

	"github.com/HatiCode/hostpulse/cmd/trendd/config"
)

// New creates a logger according to cfg.LogLevel and cfg.LogFormat.
// Unknown values fall back to info-level text logging.
func New(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
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
