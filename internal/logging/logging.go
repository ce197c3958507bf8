// =============================================================================
// Tangerine Label Generator - Logging Setup
// =============================================================================
//
// Structured logging via log/slog. Log output goes to standard error so that
// the rendered label report on standard output can be piped or redirected
// cleanly.
//
// =============================================================================

package logging

import (
	"io"
	"log/slog"
)

// New builds a text-handler logger at the given level. Unknown level strings
// fall back to info.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a configuration level string to a slog level.
func ParseLevel(level string) slog.Level {
	switch level {
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
