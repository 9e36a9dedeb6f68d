package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: " Debug ", want: slog.LevelDebug},
		{in: "WARNING", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogHandler_FormatSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		format string
		tty    bool
		json   bool
	}{
		{name: "json on a terminal", format: "json", tty: true, json: true},
		{name: "pretty when piped", format: "pretty", tty: false, json: false},
		{name: "auto on a terminal", format: "auto", tty: true, json: false},
		{name: "auto when piped", format: "auto", tty: false, json: true},
		{name: "unknown falls back to auto", format: "logfmt", tty: false, json: true},
		{name: "case and space", format: " JSON ", tty: true, json: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			slog.New(newLogHandler(&buf, "info", tc.format, tc.tty)).Info("sync.cycle.done", "uploaded", 2)

			line := strings.TrimSpace(buf.String())
			var rec map[string]any
			isJSON := json.Unmarshal([]byte(line), &rec) == nil
			if isJSON != tc.json {
				t.Fatalf("format=%q tty=%v json=%v; output %q", tc.format, tc.tty, isJSON, line)
			}
			if isJSON {
				if rec["msg"] != "sync.cycle.done" || rec["source"] == nil {
					t.Fatalf("json record missing msg or source: %v", rec)
				}
			} else if !strings.Contains(stripANSI(line), "uploaded=2") {
				t.Fatalf("pretty line missing attrs: %q", line)
			}
		})
	}
}

func TestNewLogHandler_LevelApplies(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "pretty"} {
		h := newLogHandler(&bytes.Buffer{}, "warn", format, false)
		if h.Enabled(context.Background(), slog.LevelInfo) {
			t.Fatalf("%s handler enabled info at warn level", format)
		}
		if !h.Enabled(context.Background(), slog.LevelError) {
			t.Fatalf("%s handler disabled error at warn level", format)
		}
	}
}

// Not parallel: swaps the process default logger.
func TestNewLogger_InstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	log := NewLogger("debug", "json")
	if slog.Default() != log {
		t.Fatalf("NewLogger did not install itself as the default logger")
	}
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug level not applied")
	}
}
