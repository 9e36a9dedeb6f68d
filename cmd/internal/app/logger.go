package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Logger is the app-wide logger type.
type Logger = *slog.Logger

// NewLogger builds the process logger. Format "json" always writes JSON,
// "pretty" always writes the colored line format, and "auto" picks pretty
// only when stdout is a terminal.
func NewLogger(level, format string) *slog.Logger {
	log := slog.New(newLogHandler(os.Stdout, level, format, term.IsTerminal(int(os.Stdout.Fd()))))
	slog.SetDefault(log)
	return log
}

func newLogHandler(w io.Writer, level, format string, tty bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(level),
		AddSource: true,
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "pretty":
		return newPrettyHandler(w, opts, tty)
	default:
		if tty {
			return newPrettyHandler(w, opts, true)
		}
		return slog.NewJSONHandler(w, opts)
	}
}

func parseLogLevel(level string) slog.Level {
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
