package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a structured JSON logger for a component. Logs go to
// stderr so command output on stdout stays clean.
func NewLogger(component string, level slog.Level) *slog.Logger {
	return NewLoggerTo(os.Stderr, component, level)
}

// NewLoggerTo creates a structured JSON logger writing to w
func NewLoggerTo(w io.Writer, component string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With("component", component)
}

// ParseLevel converts a level name to slog.Level, defaulting to Info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
