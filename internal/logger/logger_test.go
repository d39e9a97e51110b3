package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	textLogger, err := New(&Config{Level: "debug", Format: TEXT, Output: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	textLogger.Info("Text message", "key", "value")
	if !strings.Contains(buf.String(), "Text message") || !strings.Contains(buf.String(), "key=value") {
		t.Errorf("Expected text formatted log, got: %s", buf.String())
	}

	buf.Reset()
	jsonLogger, err := New(&Config{Level: "debug", Format: JSON, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jsonLogger.Info("JSON message")
	if !strings.Contains(buf.String(), "\"level\":\"INFO\"") ||
		!strings.Contains(buf.String(), "\"msg\":\"JSON message\"") {
		t.Errorf("Expected JSON formatted log, got: %s", buf.String())
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := MustNew(&Config{Level: "info", Format: TEXT, Output: &buf, NoColor: true})

	logger.Debug("Should not appear")
	if buf.Len() > 0 {
		t.Errorf("DEBUG message should not have been logged, got: %s", buf.String())
	}

	buf.Reset()
	logger.Info("Should appear")
	if buf.Len() == 0 {
		t.Errorf("INFO message should have been logged")
	}

	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	_, err := New(&Config{
		Level:      "info",
		Output:     &buf,
		Dir:        dir,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, defaultLogFileName)); err != nil {
		t.Fatalf("expected log file, got error: %v", err)
	}
}

func TestNewLoggerRejectsBadRotation(t *testing.T) {
	if _, err := New(&Config{Dir: t.TempDir()}); err == nil {
		t.Fatal("expected error for zero rotation limits")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := MustNew(&Config{Level: "debug", Output: &buf, NoColor: true})

	Component(logger, "summarizer", "retry").Info("attempt")
	if !strings.Contains(buf.String(), "component=summarizer.retry") {
		t.Errorf("expected component path in output, got: %s", buf.String())
	}
}
