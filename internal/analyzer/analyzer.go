// Package analyzer builds a repository report from GitHub data and
// per-file summaries, and records the usage it incurred.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/github"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/telemetry"
	"github.com/localrivet/reporeader/internal/usage"
)

const (
	// DefaultMaxFiles is the number of code files summarized per analysis.
	DefaultMaxFiles = 10

	// DefaultCommitLimit is the number of recent commits in a report.
	DefaultCommitLimit = 5
)

// RepoSource is the GitHub data an analysis reads.
type RepoSource interface {
	Authenticated() bool
	GetRepo(ctx context.Context, owner, repo string) (*github.Repository, error)
	ListContents(ctx context.Context, owner, repo, path string) ([]github.ContentEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path string) (string, error)
	GetRecentCommits(ctx context.Context, owner, repo string, limit int) ([]github.Commit, error)
	GetContributors(ctx context.Context, owner, repo string) ([]github.Contributor, error)
	GetRateLimit(ctx context.Context) (*github.RateLimit, error)
}

// Summarizer produces file summaries and repository descriptions.
type Summarizer interface {
	Summarize(ctx context.Context, req summarizer.Request) summarizer.Result
	DescribeRepository(ctx context.Context, repoName, content string) summarizer.Result
}

// Ledger records usage and reports the running totals.
type Ledger interface {
	Record(ctx context.Context, d usage.Delta)
	Summary() usage.Summary
}

// Options configure an Analyzer.
type Options struct {
	Source          RepoSource
	Summarizer      Summarizer
	Ledger          Ledger
	MaxFiles        int
	CommitLimit     int
	CostPer1KTokens float64
	Logger          *slog.Logger
	Metrics         *telemetry.MetricsCollector
	// Now returns the report timestamp; defaults to time.Now.
	Now func() time.Time
}

// Analyzer runs repository analyses.
type Analyzer struct {
	source      RepoSource
	summarizer  Summarizer
	ledger      Ledger
	maxFiles    int
	commitLimit int
	costPer1K   float64
	logger      *slog.Logger
	metrics     *telemetry.MetricsCollector
	now         func() time.Time
}

// New creates an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Source == nil {
		return nil, errortypes.ConfigError(nil, "analyzer requires a repository source")
	}
	if opts.Summarizer == nil {
		return nil, errortypes.ConfigError(nil, "analyzer requires a summarizer")
	}
	if opts.Ledger == nil {
		return nil, errortypes.ConfigError(nil, "analyzer requires a usage ledger")
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.CommitLimit <= 0 {
		opts.CommitLimit = DefaultCommitLimit
	}
	if opts.CostPer1KTokens <= 0 {
		opts.CostPer1KTokens = usage.DefaultCostPer1KTokens
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetricsCollector()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Analyzer{
		source:      opts.Source,
		summarizer:  opts.Summarizer,
		ledger:      opts.Ledger,
		maxFiles:    opts.MaxFiles,
		commitLimit: opts.CommitLimit,
		costPer1K:   opts.CostPer1KTokens,
		logger:      opts.Logger.With("component", "analyzer"),
		metrics:     opts.Metrics,
		now:         opts.Now,
	}, nil
}

// run holds the per-analysis counters.
type run struct {
	owner, repo string
	githubCalls atomic.Int64
	tally       TokenUsage
}

func (r *run) addAI(u summarizer.UsageRecord) {
	r.tally.AIAPICalls += u.APICalls
	r.tally.AITokensUsed += u.TokensUsed
	r.tally.ColdStartRetries += u.ColdStartRetries
}

// Analyze produces a report for the repository at repoURL and records the
// usage in the ledger.
func (a *Analyzer) Analyze(ctx context.Context, repoURL string) (*Report, error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordTimer(telemetry.MetricAnalysisTime, time.Since(start))
	}()
	a.metrics.IncrementCounter(telemetry.MetricAnalyses, 1)

	owner, repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	r := &run{owner: owner, repo: repo}
	log := a.logger.With("repo", owner+"/"+repo)

	info, err := a.source.GetRepo(ctx, owner, repo)
	r.githubCalls.Add(1)
	if err != nil {
		return nil, a.repoLookupError(ctx, owner, repo, err)
	}

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: a.now(),
		RepoInfo:    info,
	}

	entries, err := a.source.ListContents(ctx, owner, repo, "")
	r.githubCalls.Add(1)
	if err != nil {
		log.Warn("failed to list repository contents", "error", err)
	}

	report.FileAnalysis = a.summarizeFiles(ctx, r, entries, log)
	report.TotalFilesAnalyzed = len(report.FileAnalysis)
	report.Description = a.describe(ctx, r, info, entries, log)

	if err := a.fetchHistory(ctx, r, report, log); err != nil {
		return nil, err
	}

	remaining := 0
	if rl, err := a.source.GetRateLimit(ctx); err != nil {
		log.Warn("failed to read github rate limit", "error", err)
	} else {
		remaining = rl.Remaining
		reset := rl.ResetTime
		r.tally.GitHubRateLimitReset = &reset
	}

	tokenUsage := r.tally
	tokenUsage.GitHubAPICalls = int(r.githubCalls.Load())
	tokenUsage.GitHubRateLimitRemaining = remaining
	tokenUsage.TotalCostEstimate = usage.CostEstimate(int64(tokenUsage.AITokensUsed), a.costPer1K)
	report.TokenUsage = tokenUsage

	a.ledger.Record(ctx, usage.Delta{
		GitHubAPICalls: int64(tokenUsage.GitHubAPICalls),
		AIAPICalls:     int64(tokenUsage.AIAPICalls),
		AITokensUsed:   int64(tokenUsage.AITokensUsed),
		TotalCost:      tokenUsage.TotalCostEstimate,
	})

	report.UsageSummary = a.ledger.Summary()
	report.RateLimitStatus = usage.RateLimitStatus(remaining, usage.LimitFor(a.source.Authenticated()))

	log.Info("repository analyzed",
		"files", report.TotalFilesAnalyzed,
		"github_calls", tokenUsage.GitHubAPICalls,
		"ai_calls", tokenUsage.AIAPICalls,
		"duration", time.Since(start))
	return report, nil
}

// repoLookupError distinguishes an exhausted quota from a missing or
// private repository.
func (a *Analyzer) repoLookupError(ctx context.Context, owner, repo string, err error) error {
	if errortypes.IsRateLimitError(err) {
		return errortypes.RateLimitError(err,
			"GitHub API rate limit exceeded. Please try again later or add a GitHub token for higher limits.")
	}
	if rl, rlErr := a.source.GetRateLimit(ctx); rlErr == nil && rl.Remaining == 0 {
		return errortypes.RateLimitError(err,
			"GitHub API rate limit exceeded. Please try again later or add a GitHub token for higher limits.")
	}
	if errortypes.IsNotFoundError(err) {
		return errortypes.NotFoundError(err, fmt.Sprintf(
			"Repository %q not found or is private. Please check the URL and ensure the repository is public.",
			owner+"/"+repo))
	}
	return errortypes.ExternalError(err, "failed to fetch repository information")
}

// summarizeFiles summarizes code files in listing order, one at a time,
// up to the configured limit.
func (a *Analyzer) summarizeFiles(ctx context.Context, r *run, entries []github.ContentEntry, log *slog.Logger) []FileAnalysis {
	results := make([]FileAnalysis, 0, a.maxFiles)
	for _, entry := range entries {
		if len(results) >= a.maxFiles || ctx.Err() != nil {
			break
		}
		if !entry.IsFile() || !summarizer.IsCodeFile(entry.Name) {
			continue
		}

		content, err := a.source.GetFileContent(ctx, r.owner, r.repo, entry.Path)
		r.githubCalls.Add(1)
		if err != nil {
			log.Debug("skipping file", "path", entry.Path, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		res := a.summarizer.Summarize(ctx, summarizer.Request{Filename: entry.Name, Content: content})
		r.addAI(res.Usage)

		results = append(results, FileAnalysis{
			File:       entry.Name,
			Path:       entry.Path,
			Summary:    res.Text,
			Size:       entry.Size,
			TokensUsed: res.Usage.TokensUsed,
			Method:     res.Usage.Method,
			Model:      res.Usage.Model,
		})
	}
	return results
}

// describe builds the repository description from the README, or from the
// GitHub description when there is none.
func (a *Analyzer) describe(ctx context.Context, r *run, info *github.Repository, entries []github.ContentEntry, log *slog.Logger) string {
	content := info.Description
	if readme, ok := findReadme(entries); ok {
		text, err := a.source.GetFileContent(ctx, r.owner, r.repo, readme.Path)
		r.githubCalls.Add(1)
		if err != nil {
			log.Debug("failed to fetch readme", "path", readme.Path, "error", err)
		} else if strings.TrimSpace(text) != "" {
			content = text
		}
	}

	res := a.summarizer.DescribeRepository(ctx, info.Name, content)
	r.addAI(res.Usage)
	return res.Text
}

func findReadme(entries []github.ContentEntry) (github.ContentEntry, bool) {
	for _, e := range entries {
		if !e.IsFile() {
			continue
		}
		name := strings.ToLower(e.Name)
		if name == "readme" || strings.HasPrefix(name, "readme.") {
			return e, true
		}
	}
	return github.ContentEntry{}, false
}

// fetchHistory loads commits and contributors concurrently. Failures of
// either leave that section empty; only cancellation aborts the analysis.
func (a *Analyzer) fetchHistory(ctx context.Context, r *run, report *Report, log *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		commits, err := a.source.GetRecentCommits(gctx, r.owner, r.repo, a.commitLimit)
		r.githubCalls.Add(1)
		if err != nil {
			log.Warn("failed to fetch commits", "error", err)
			return ctx.Err()
		}
		report.Commits = commits
		return nil
	})

	g.Go(func() error {
		contributors, err := a.source.GetContributors(gctx, r.owner, r.repo)
		r.githubCalls.Add(1)
		if err != nil {
			log.Warn("failed to fetch contributors", "error", err)
			return ctx.Err()
		}
		report.Contributors = contributors
		return nil
	})

	if err := g.Wait(); err != nil {
		return errortypes.InternalError(err, "analysis canceled")
	}
	if report.Commits == nil {
		report.Commits = []github.Commit{}
	}
	if report.Contributors == nil {
		report.Contributors = []github.Contributor{}
	}
	return nil
}
