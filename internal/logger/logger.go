// Package logger builds the slog.Logger used across reporeader.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects the handler used to encode records.
type Format string

const (
	// TEXT renders human readable, optionally colored lines.
	TEXT Format = "text"
	// JSON renders one JSON object per record.
	JSON Format = "json"
)

const defaultLogFileName = "reporeader.log"

// Config controls how the logger is built.
type Config struct {
	Level  string
	Format Format
	// Output defaults to os.Stdout. MCP mode passes os.Stderr since stdout carries the protocol.
	Output io.Writer

	// Dir enables rotated file output next to Output when non-empty.
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	NoColor bool
}

// DefaultConfig returns an info level text logger writing to stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: TEXT,
		Output: os.Stdout,
	}
}

// New creates a logger from cfg. A nil cfg yields DefaultConfig.
func New(cfg *Config) (*slog.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	noColor := cfg.NoColor
	var rotated *lumberjack.Logger
	if dir := strings.TrimSpace(cfg.Dir); dir != "" {
		if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
			return nil, fmt.Errorf(
				"invalid log config: size=%d backups=%d age_days=%d",
				cfg.MaxSizeMB,
				cfg.MaxBackups,
				cfg.MaxAgeDays,
			)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir failed: %w", err)
		}
		rotated = &lumberjack.Logger{
			Filename:   filepath.Join(dir, defaultLogFileName),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(out, rotated)
		noColor = true
	}

	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case JSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, AddSource: true})
	default:
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
			NoColor:    noColor,
		})
	}

	logger := slog.New(handler)
	if rotated != nil {
		logger.Info("file_logging_enabled", "path", rotated.Filename)
	}
	return logger, nil
}

// MustNew is New for callers that cannot recover, such as main.
func MustNew(cfg *Config) *slog.Logger {
	logger, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}

// Component returns a child logger tagged with the component path, e.g. "summarizer.retry".
func Component(logger *slog.Logger, parts ...string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if len(parts) == 0 {
		return logger
	}
	return logger.With("component", strings.Join(parts, "."))
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
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
