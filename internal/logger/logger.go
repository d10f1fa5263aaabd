// Package logger provides structured logging setup for lspkeeper.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Strob0t/lspkeeper/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stderr with a "service" attribute on every record;
// stdout is left to command output.
func New(cfg config.Logging) *slog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.Logging, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(handler).With("service", cfg.Service)
}

// Zap returns the logger handed to the LSP protocol dispatcher. The
// dispatcher traces every message, so it only logs in debug mode.
func Zap(cfg config.Logging) *zap.Logger {
	if parseLevel(cfg.Level) != slog.LevelDebug {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named(cfg.Service)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
