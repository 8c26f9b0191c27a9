// Package logging provides structured logging configuration using log/slog.
//
// The tracker logs to a file rather than stdout because the interactive
// menu owns the terminal; log entries would otherwise tear the UI. Bulk
// operations attach a batch_id field so every skip reason can be correlated
// with the summary of the batch that produced it.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup configures the global slog logger to write to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" format when the log file is consumed by tooling, "text" when
// it is read by a human.
func Setup(w io.Writer, level, format string) {
	slog.SetDefault(New(w, level, format))
}

// New builds a logger without touching the global default. Tests use this
// to keep their output isolated.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithFields returns a logger with additional structured fields.
//
// This is useful for creating operation-specific loggers that carry
// consistent context through a multi-step process:
//
//	batchLog := logging.WithFields("op", "bulk_add", "batch_id", id)
//	batchLog.Warn("skipping row", "row", 3, "reason", reason)
func WithFields(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}
