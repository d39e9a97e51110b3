package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/localrivet/configurator"
)

// Config represents the reporeader configuration
type Config struct {
	// Server contains HTTP front end configuration.
	Server struct {
		// Addr is the listen address for the HTTP API.
		Addr string `json:"addr" env:"SERVER_ADDR" validate:"required"`

		// Mode is the gin mode ("debug", "release", "test").
		Mode string `json:"mode" env:"SERVER_MODE"`

		// ReadTimeoutSeconds bounds reading a request.
		ReadTimeoutSeconds int `json:"read_timeout_seconds" env:"SERVER_READ_TIMEOUT_SECONDS" validate:"min:1"`

		// WriteTimeoutSeconds bounds writing a response. Analysis can be slow.
		WriteTimeoutSeconds int `json:"write_timeout_seconds" env:"SERVER_WRITE_TIMEOUT_SECONDS" validate:"min:1"`
	} `json:"server"`

	// Ledger contains usage ledger storage configuration.
	Ledger struct {
		// Backend is one of "json", "sqlite", "memory".
		Backend string `json:"backend" env:"LEDGER_BACKEND" validate:"required"`

		// Path is the ledger file (JSON document or SQLite database).
		Path string `json:"path" env:"LEDGER_PATH"`

		// RetentionDays is how long daily buckets are kept.
		RetentionDays int `json:"retention_days" env:"LEDGER_RETENTION_DAYS" validate:"min:1"`
	} `json:"ledger"`

	// Summarizer contains summarization-related configuration.
	Summarizer struct {
		// Chain is the ordered backend list, "model:shape,model:shape".
		// Empty means the default chain.
		Chain string `json:"chain" env:"SUMMARIZER_CHAIN"`

		// HuggingFaceAPIKey enables the Hugging Face backends.
		HuggingFaceAPIKey string `json:"huggingface_api_key" env:"HUGGINGFACE_API_KEY"`

		// HuggingFaceBaseURL overrides the inference endpoint.
		HuggingFaceBaseURL string `json:"huggingface_base_url" env:"HUGGINGFACE_BASE_URL"`

		// GeminiAPIKey enables gemini:* backends.
		GeminiAPIKey string `json:"gemini_api_key" env:"GEMINI_API_KEY"`

		// TimeoutSeconds bounds a single backend call.
		TimeoutSeconds int `json:"timeout_seconds" env:"SUMMARIZER_TIMEOUT_SECONDS" validate:"min:1"`

		// MaxAttempts is the number of attempts per backend.
		MaxAttempts int `json:"max_attempts" env:"SUMMARIZER_MAX_ATTEMPTS" validate:"min:1"`

		// RetryDelaySeconds is the pause between attempts.
		RetryDelaySeconds int `json:"retry_delay_seconds" env:"SUMMARIZER_RETRY_DELAY_SECONDS"`

		// ColdStartMaxWaitSeconds caps the wait for a loading model.
		ColdStartMaxWaitSeconds int `json:"cold_start_max_wait_seconds" env:"SUMMARIZER_COLD_START_MAX_WAIT_SECONDS"`
	} `json:"summarizer"`

	// GitHub contains GitHub REST API configuration.
	GitHub struct {
		// Token raises the rate limit from 60 to 5000 requests per hour.
		Token string `json:"token" env:"GITHUB_TOKEN"`

		// BaseURL overrides https://api.github.com.
		BaseURL string `json:"base_url" env:"GITHUB_BASE_URL"`

		// RequestsPerSecond is the client side request rate.
		RequestsPerSecond float64 `json:"requests_per_second" env:"GITHUB_REQUESTS_PER_SECOND"`

		// MaxFiles is how many code files an analysis summarizes.
		MaxFiles int `json:"max_files" env:"GITHUB_MAX_FILES" validate:"min:1"`
	} `json:"github"`

	// Pricing contains cost estimation configuration.
	Pricing struct {
		// CostPer1KTokens is the estimated price of 1000 AI tokens.
		CostPer1KTokens float64 `json:"cost_per_1k_tokens" env:"PRICING_COST_PER_1K_TOKENS"`
	} `json:"pricing"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`

		// Dir enables rotated file logging when set.
		Dir string `json:"dir" env:"LOG_DIR"`

		MaxSizeMB  int  `json:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
		MaxBackups int  `json:"max_backups" env:"LOG_MAX_BACKUPS"`
		MaxAgeDays int  `json:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
		Compress   bool `json:"compress" env:"LOG_COMPRESS"`
	} `json:"logging"`
}

// Default configuration values
const (
	DefaultConfigFilename   = ".reporeaderconfig"
	DefaultEnvPrefix        = "REPOREADER"
	DefaultServerAddr       = ":8080"
	DefaultLedgerBackend    = "json"
	DefaultLedgerPath       = "token_usage.json"
	DefaultRetentionDays    = 30
	DefaultTimeoutSeconds   = 30
	DefaultMaxAttempts      = 3
	DefaultRetryDelay       = 5
	DefaultColdStartMaxWait = 60
	DefaultRequestsPerSec   = 10
	DefaultMaxFiles         = 10
	DefaultCostPer1KTokens  = 0.0002
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Server.Addr = DefaultServerAddr
	config.Server.Mode = "release"
	config.Server.ReadTimeoutSeconds = 15
	config.Server.WriteTimeoutSeconds = 300
	config.Ledger.Backend = DefaultLedgerBackend
	config.Ledger.Path = DefaultLedgerPath
	config.Ledger.RetentionDays = DefaultRetentionDays
	config.Summarizer.TimeoutSeconds = DefaultTimeoutSeconds
	config.Summarizer.MaxAttempts = DefaultMaxAttempts
	config.Summarizer.RetryDelaySeconds = DefaultRetryDelay
	config.Summarizer.ColdStartMaxWaitSeconds = DefaultColdStartMaxWait
	config.GitHub.RequestsPerSecond = DefaultRequestsPerSec
	config.GitHub.MaxFiles = DefaultMaxFiles
	config.Pricing.CostPer1KTokens = DefaultCostPer1KTokens
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	config.Logging.MaxSizeMB = 10
	config.Logging.MaxBackups = 3
	config.Logging.MaxAgeDays = 7
	return config
}

// LoadConfigWithPath loads the configuration from a specific path.
// A .env file in the working directory is read first, and the well-known
// unprefixed variables are applied last.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Config loading happens before the real logger exists; stderr keeps MCP stdout clean.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	_ = godotenv.Load()

	cfg := NewConfig()

	if configPath == "" {
		configPath = DefaultConfigFilename
	}

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())

	if _, err := os.Stat(configPath); err == nil {
		stdLogger.Info("Loading configuration", "path", configPath)
		config = config.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Debug("Config file not found, using defaults and environment", "path", configPath)
	}

	config = config.
		WithProvider(configurator.NewEnvProvider(DefaultEnvPrefix)).
		WithValidator(configurator.NewDefaultValidator())

	if err := config.Load(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.applyWellKnownEnv()

	return cfg, nil
}

// SummarizerTimeout returns the per-call timeout.
func (c *Config) SummarizerTimeout() time.Duration {
	return time.Duration(c.Summarizer.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between attempts on one backend.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Summarizer.RetryDelaySeconds) * time.Second
}

// ColdStartMaxWait returns the cap on a cold start wait.
func (c *Config) ColdStartMaxWait() time.Duration {
	return time.Duration(c.Summarizer.ColdStartMaxWaitSeconds) * time.Second
}
