// Package log configures the process-wide slog default used by every
// component. Sources, the dispatcher and the runtime all derive child
// loggers from it via WithModule.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default logger. Level is one of debug, info, warn,
// error (anything else falls back to info). Format is "text" or "json";
// both write to stderr so event payloads on stdout stay clean.
func Setup(logLevel, format string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
