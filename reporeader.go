package reporeader

import (
	"context"
	"log/slog"

	"github.com/localrivet/reporeader/internal/analyzer"
	"github.com/localrivet/reporeader/internal/config"
	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/github"
	"github.com/localrivet/reporeader/internal/healthcheck"
	"github.com/localrivet/reporeader/internal/ledgerstore"
	"github.com/localrivet/reporeader/internal/logger"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/summarizer/providers"
	"github.com/localrivet/reporeader/internal/telemetry"
	"github.com/localrivet/reporeader/internal/usage"
)

// Config represents the configuration for the reporeader service.
type Config = config.Config

// Components are the wired building blocks of a Service.
type Components struct {
	Store      ledgerstore.Store
	Ledger     *usage.Ledger
	Summarizer *summarizer.ChainSummarizer
	GitHub     *github.Client
	Analyzer   *analyzer.Analyzer
	Checker    *healthcheck.Checker
	Metrics    *telemetry.MetricsCollector
}

// Service summarizes files, analyzes repositories and keeps the usage ledger.
type Service struct {
	config     *config.Config
	components *Components
	logger     *slog.Logger
}

// ServiceOptions defines the options for creating a new Service.
type ServiceOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, one is built from the logging config.
	Metrics    *telemetry.MetricsCollector
}

// NewService creates a Service with the given options.
func NewService(ctx context.Context, opts ServiceOptions) (*Service, error) {
	var cfg *Config
	var err error

	switch {
	case opts.Config != nil:
		cfg = opts.Config
	case opts.ConfigPath != "":
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+opts.ConfigPath)
		}
	default:
		cfg = DefaultConfig()
	}

	log := opts.Logger
	if log == nil {
		log, err = logger.New(LoggerConfig(cfg))
		if err != nil {
			return nil, errortypes.ConfigError(err, "Failed to build logger")
		}
	}

	components, err := CreateComponents(ctx, cfg, log, opts.Metrics)
	if err != nil {
		log.Error("Failed to create components during service initialization", "error", err)
		return nil, err
	}

	log.Info("reporeader service initialized",
		"ledger_backend", cfg.Ledger.Backend,
		"backends", components.Summarizer.Backends(),
		"github_authenticated", components.GitHub.Authenticated(),
	)
	return &Service{
		config:     cfg,
		components: components,
		logger:     log,
	}, nil
}

// DefaultConfig returns the default configuration for the reporeader service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// LoggerConfig maps the logging section of cfg onto the logger package.
func LoggerConfig(cfg *Config) *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = logger.Format(cfg.Logging.Format)
	lc.Dir = cfg.Logging.Dir
	lc.MaxSizeMB = cfg.Logging.MaxSizeMB
	lc.MaxBackups = cfg.Logging.MaxBackups
	lc.MaxAgeDays = cfg.Logging.MaxAgeDays
	lc.Compress = cfg.Logging.Compress
	return lc
}

// CreateComponents creates and initializes the components of the service
// without creating a Service. A nil metrics collector gets a fresh one.
func CreateComponents(ctx context.Context, cfg *Config, log *slog.Logger, metrics *telemetry.MetricsCollector) (*Components, error) {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}

	store, err := ledgerstore.New(cfg.Ledger.Backend, cfg.Ledger.Path)
	if err != nil {
		log.Error("Failed to initialize ledger store", "backend", cfg.Ledger.Backend, "path", cfg.Ledger.Path, "error", err)
		return nil, errortypes.DatabaseError(err, "Failed to initialize ledger store")
	}

	ledger, err := usage.Open(ctx, store, usage.Options{
		RetentionDays: cfg.Ledger.RetentionDays,
		Logger:        logger.Component(log, "usage"),
		Metrics:       metrics,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	chain, err := providers.ParseChain(cfg.Summarizer.Chain)
	if err != nil {
		_ = ledger.Close()
		return nil, errortypes.ConfigError(err, "invalid summarizer chain")
	}
	factory := providers.NewFactory(providers.FactoryConfig{
		HuggingFaceAPIKey:  credential(cfg.Summarizer.HuggingFaceAPIKey),
		HuggingFaceBaseURL: cfg.Summarizer.HuggingFaceBaseURL,
		GeminiAPIKey:       credential(cfg.Summarizer.GeminiAPIKey),
		Timeout:            cfg.SummarizerTimeout(),
	}, logger.Component(log, "providers"))
	backends := factory.Build(chain)
	if len(backends) == 0 {
		log.Warn("no summarization backend has a credential, using rule-based summaries", "chain", chain.String())
	}

	sum := summarizer.NewChainSummarizer(summarizer.Options{
		Chain: backends,
		Policy: summarizer.RetryPolicy{
			MaxAttempts:      cfg.Summarizer.MaxAttempts,
			RetryDelay:       cfg.RetryDelay(),
			ColdStartMaxWait: cfg.ColdStartMaxWait(),
		},
		Metrics: metrics,
		Logger:  log,
	})

	gh := github.NewClient(github.Options{
		Token:             credential(cfg.GitHub.Token),
		BaseURL:           cfg.GitHub.BaseURL,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Logger:            logger.Component(log, "github"),
		Metrics:           metrics,
	})

	an, err := analyzer.New(analyzer.Options{
		Source:          gh,
		Summarizer:      sum,
		Ledger:          ledger,
		MaxFiles:        cfg.GitHub.MaxFiles,
		CostPer1KTokens: cfg.Pricing.CostPer1KTokens,
		Logger:          logger.Component(log, "analyzer"),
		Metrics:         metrics,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	checker := healthcheck.New(healthcheck.Options{
		GitHub:           gh,
		HuggingFaceToken: credential(cfg.Summarizer.HuggingFaceAPIKey),
	})

	return &Components{
		Store:      store,
		Ledger:     ledger,
		Summarizer: sum,
		GitHub:     gh,
		Analyzer:   an,
		Checker:    checker,
		Metrics:    metrics,
	}, nil
}

func credential(v string) string {
	if !config.HasCredential(v) {
		return ""
	}
	return v
}

// Summarize summarizes one file and records the AI usage it caused.
func (s *Service) Summarize(ctx context.Context, req summarizer.Request) summarizer.Result {
	res := s.components.Summarizer.Summarize(ctx, req)
	s.recordAI(ctx, res.Usage)
	return res
}

// DescribeRepository produces a one or two sentence repository description
// and records the AI usage it caused.
func (s *Service) DescribeRepository(ctx context.Context, repoName, content string) summarizer.Result {
	res := s.components.Summarizer.DescribeRepository(ctx, repoName, content)
	s.recordAI(ctx, res.Usage)
	return res
}

func (s *Service) recordAI(ctx context.Context, u summarizer.UsageRecord) {
	if u.APICalls == 0 && u.TokensUsed == 0 {
		return
	}
	tokens := int64(u.TokensUsed)
	s.RecordUsage(ctx, usage.Delta{
		AIAPICalls:   int64(u.APICalls),
		AITokensUsed: tokens,
		TotalCost:    usage.CostEstimate(tokens, s.config.Pricing.CostPer1KTokens),
	})
}

// RecordUsage adds d to the ledger. Persistence failures are logged by the ledger.
func (s *Service) RecordUsage(ctx context.Context, d usage.Delta) {
	s.components.Ledger.Record(ctx, d)
}

// UsageSummary returns today, this month, lifetime and the last 7 days.
func (s *Service) UsageSummary() usage.Summary {
	return s.components.Ledger.Summary()
}

// Analyze runs a full repository analysis.
func (s *Service) Analyze(ctx context.Context, repoURL string) (*analyzer.Report, error) {
	return s.components.Analyzer.Analyze(ctx, repoURL)
}

// HealthReport describes the summarization backends.
func (s *Service) HealthReport() (*summarizer.HealthReport, error) {
	return summarizer.CreateHealthReport(s.components.Summarizer)
}

// CheckCredentials calls GitHub and Hugging Face once each to verify the
// configured credentials.
func (s *Service) CheckCredentials(ctx context.Context) []healthcheck.Check {
	return s.components.Checker.Run(ctx)
}

// Metrics returns the collector shared by every component.
func (s *Service) Metrics() *telemetry.MetricsCollector {
	return s.components.Metrics
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *Config {
	return s.config
}

// Logger returns the service logger.
func (s *Service) Logger() *slog.Logger {
	return s.logger
}

// Components returns the wired components.
func (s *Service) Components() *Components {
	return s.components
}

// Close flushes and closes the ledger store.
func (s *Service) Close() error {
	s.logger.Info("Closing usage ledger")
	if err := s.components.Ledger.Close(); err != nil {
		s.logger.Error("Failed to close usage ledger", "error", err)
		return err
	}
	return nil
}
