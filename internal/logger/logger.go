// Package logger provides structured logging setup for FeedbackForge.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/Strob0t/FeedbackForge/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to w with a "service" attribute on every record.
//
// The broker must pass stderr here: stdout carries the MCP stdio transport
// and a single stray log line would corrupt the protocol stream.
func New(w io.Writer, cfg config.Logging) *slog.Logger {
	level := parseLevel(cfg.Level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With("service", cfg.Service)
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
