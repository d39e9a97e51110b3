package summarizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/localrivet/reporeader/internal/summarizer/providers"
	"github.com/localrivet/reporeader/internal/telemetry"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures a ChainSummarizer.
type Options struct {
	Chain   []providers.Provider
	Policy  RetryPolicy
	Metrics *telemetry.MetricsCollector
	Logger  *slog.Logger
	Sleeper Sleeper
}

// ChainSummarizer tries each backend of its chain in order, retrying each
// up to the policy limit, and falls back to offline text when all fail.
// It is safe for concurrent use.
type ChainSummarizer struct {
	chain   []providers.Provider
	policy  RetryPolicy
	metrics *telemetry.MetricsCollector
	logger  *slog.Logger
	sleep   Sleeper
}

// NewChainSummarizer creates a ChainSummarizer. A nil or empty chain
// yields rule-based summaries without network calls.
func NewChainSummarizer(opts Options) *ChainSummarizer {
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetricsCollector()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sleeper == nil {
		opts.Sleeper = SleepContext
	}
	if opts.Policy == (RetryPolicy{}) {
		opts.Policy = DefaultRetryPolicy()
	}

	return &ChainSummarizer{
		chain:   append([]providers.Provider(nil), opts.Chain...),
		policy:  opts.Policy.normalized(),
		metrics: opts.Metrics,
		logger:  opts.Logger.With("component", "summarizer"),
		sleep:   opts.Sleeper,
	}
}

// Backends returns the backend names in chain order.
func (s *ChainSummarizer) Backends() []string {
	names := make([]string, len(s.chain))
	for i, p := range s.chain {
		names[i] = p.Name()
	}
	return names
}

// HasBackends reports whether any remote backend is configured.
func (s *ChainSummarizer) HasBackends() bool {
	return len(s.chain) > 0
}

// GetMetrics returns the metrics collector for this summarizer
func (s *ChainSummarizer) GetMetrics() *telemetry.MetricsCollector {
	return s.metrics
}

// Summarize produces a per-file summary. It always returns a result.
func (s *ChainSummarizer) Summarize(ctx context.Context, req Request) Result {
	start := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricTotalTime, time.Since(start))
	}()
	s.metrics.IncrementCounter(telemetry.MetricRequests, 1)

	if !s.HasBackends() {
		return NewRuleBasedSummarizer().Summarize(ctx, req)
	}

	prompt := BuildFilePrompt(req.Filename, FilePreparer.Prepare(req.Content))
	out := s.run(ctx, prompt, FormatFileSummary)
	if out.ok {
		return Result{Text: out.text, Usage: out.usage}
	}

	s.metrics.IncrementCounter(telemetry.MetricDegraded, 1)
	s.logger.Warn("all backends failed, using rule-based summary",
		"file", req.Filename, "api_calls", out.usage.APICalls)
	return Result{
		Text:  RuleBasedSummary(req.Filename, req.Content),
		Usage: out.usage,
	}
}

// DescribeRepository produces a short description of a repository from its
// README or other representative content. It always returns a result.
func (s *ChainSummarizer) DescribeRepository(ctx context.Context, repoName, content string) Result {
	start := time.Now()
	defer func() {
		s.metrics.RecordTimer(telemetry.MetricTotalTime, time.Since(start))
	}()
	s.metrics.IncrementCounter(telemetry.MetricRequests, 1)

	if !s.HasBackends() {
		return Result{
			Text:  StaticRepositoryDescription(repoName),
			Usage: UsageRecord{Method: MethodRuleBased},
		}
	}

	prompt := BuildRepositoryPrompt(repoName, RepositoryPreparer.Prepare(content))
	out := s.run(ctx, prompt, func(text string) string {
		return FormatRepositoryDescription(text, repoName)
	})
	if out.ok {
		return Result{Text: out.text, Usage: out.usage}
	}

	s.metrics.IncrementCounter(telemetry.MetricDegraded, 1)
	s.logger.Warn("all backends failed, using static description",
		"repo", repoName, "api_calls", out.usage.APICalls)
	return Result{
		Text:  StaticRepositoryDescription(repoName),
		Usage: out.usage,
	}
}

type runResult struct {
	text  string
	usage UsageRecord
	ok    bool
}

// run drives the retry machine over the chain for one prompt.
func (s *ChainSummarizer) run(ctx context.Context, prompt string, format func(string) string) runResult {
	out := runResult{usage: UsageRecord{Method: MethodRuleBased}}
	tokens := providers.EstimateTokens(prompt)
	m := NewRetryMachine(s.policy, len(s.chain))

	for !m.Done() {
		st := m.State()
		if st.Kind == StateExhaustedBackend {
			backend := s.chain[st.Backend].Name()
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricExhausted, backend), 1)
			s.logger.Info("backend exhausted", "backend", backend, "attempts", st.Attempt)
			m.Advance()
			continue
		}

		if err := ctx.Err(); err != nil {
			s.logger.Info("summarization canceled", "error", err)
			m.Abort()
			break
		}

		provider := s.chain[st.Backend]
		backend := provider.Name()
		extra := st.Kind == StateColdStartWait

		callStart := time.Now()
		resp, err := provider.Call(ctx, prompt)
		s.metrics.RecordTimer(telemetry.BackendMetric(telemetry.MetricResponseTime, backend), time.Since(callStart))

		if providers.ReachedNetwork(err) {
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricBackendCalls, backend), 1)
			if extra {
				out.usage.ColdStartRetries++
			} else {
				out.usage.APICalls++
				out.usage.TokensUsed += tokens
			}
		}

		var outcome Outcome
		switch {
		case err == nil:
			text := format(resp.Text)
			if PassesQualityGate(text) {
				out.text = text
				outcome = Success()
			} else {
				s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricQualityRejections, backend), 1)
				s.logger.Debug("answer rejected by quality gate", "backend", backend, "attempt", st.Attempt)
				outcome = Failure()
			}
		case isColdStart(err):
			perr, _ := providers.AsProviderError(err)
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricColdStarts, backend), 1)
			outcome = ColdStart(perr.RetryAfter)
		default:
			s.logger.Warn("backend call failed",
				"backend", backend, "attempt", st.Attempt, "max_attempts", s.policy.MaxAttempts, "error", err)
			outcome = Failure()
		}

		next, delay := m.Next(outcome)
		switch next.Kind {
		case StateSucceeded:
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricBackendSuccess, backend), 1)
			out.usage.Method = MethodAI
			out.usage.Model = backend
			out.ok = true
			return out
		case StateColdStartWait:
			s.logger.Info("model loading, waiting", "backend", backend, "wait", delay)
		case StateAttempting:
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricBackendFailure, backend), 1)
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricRetryAttempts, backend), 1)
		default:
			s.metrics.IncrementCounter(telemetry.BackendMetric(telemetry.MetricBackendFailure, backend), 1)
		}

		if delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				s.logger.Info("summarization canceled while waiting", "error", err)
				m.Abort()
			}
		}
	}

	out.text = ""
	return out
}

func isColdStart(err error) bool {
	perr, ok := providers.AsProviderError(err)
	return ok && perr.Kind == providers.KindColdStart
}
