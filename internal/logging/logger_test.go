package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("batch flushed", "rows", 50)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "batch flushed" {
		t.Errorf("msg = %v, want %q", entry["msg"], "batch flushed")
	}
	if entry["rows"] != float64(50) {
		t.Errorf("rows = %v, want 50", entry["rows"])
	}
}

func TestWithFields_IncludesRunID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "debug", "text"))
	defer slog.SetDefault(prev)

	ctx := ContextWithRunID(context.Background(), "run-123")
	WithFields(ctx, "table", "users").Info("seed started")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-123") {
		t.Errorf("output missing run_id: %q", out)
	}
	if !strings.Contains(out, "table=users") {
		t.Errorf("output missing table: %q", out)
	}
}

func TestRunIDFromContext_Empty(t *testing.T) {
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("RunIDFromContext() = %q, want empty", got)
	}
}

func TestSetup_SetsDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := Setup(&buf, "warn", "text")
	if slog.Default() != logger {
		t.Fatal("Setup did not install the default logger")
	}

	slog.Info("hidden")
	FromContext(ContextWithRunID(context.Background(), "run-7")).Warn("seed slow")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "run_id=run-7") {
		t.Errorf("output missing run_id: %q", out)
	}
}
