// Package logging builds the single analysis-run logger codemap hands to
// every pipeline stage. It is a simplified cousin of SimplyLiz-CodeMCP's
// slogutil factory: that package builds one logger per subsystem with its
// own rotating file; codemap has no daemon/API surface to separate logs
// for, so one correlation-tagged logger to stderr (JSON when the
// logFormat config setting is "json") is enough.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New builds a logger writing to w, text-formatted unless format is
// "json". Unrecognized formats fall back to text.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// LevelFromString supports debug/info/warn/error case-insensitively,
// defaulting to info for anything else.
func LevelFromString(s string) slog.Level {
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

// WithRun returns a logger with the run's correlation id attached to
// every subsequent record.
func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}
