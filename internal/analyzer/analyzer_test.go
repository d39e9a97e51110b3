package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/github"
	"github.com/localrivet/reporeader/internal/ledgerstore"
	"github.com/localrivet/reporeader/internal/logger"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/usage"
)

// fakeSource serves a fixed repository from memory.
type fakeSource struct {
	mu            sync.Mutex
	authenticated bool
	repo          *github.Repository
	repoErr       error
	entries       []github.ContentEntry
	files         map[string]string
	commitsErr    error
	remaining     int
	fetched       []string
}

func (f *fakeSource) Authenticated() bool { return f.authenticated }

func (f *fakeSource) GetRepo(ctx context.Context, owner, repo string) (*github.Repository, error) {
	if f.repoErr != nil {
		return nil, f.repoErr
	}
	return f.repo, nil
}

func (f *fakeSource) ListContents(ctx context.Context, owner, repo, path string) ([]github.ContentEntry, error) {
	return f.entries, nil
}

func (f *fakeSource) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, path)
	content, ok := f.files[path]
	if !ok {
		return "", github.ErrNotText
	}
	return content, nil
}

func (f *fakeSource) GetRecentCommits(ctx context.Context, owner, repo string, limit int) ([]github.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return []github.Commit{{SHA: "abc1234", Message: "Initial commit", Author: "Ada"}}, nil
}

func (f *fakeSource) GetContributors(ctx context.Context, owner, repo string) ([]github.Contributor, error) {
	return []github.Contributor{{Login: "ada", Contributions: 3}}, nil
}

func (f *fakeSource) GetRateLimit(ctx context.Context) (*github.RateLimit, error) {
	return &github.RateLimit{Limit: 60, Remaining: f.remaining, ResetTime: time.Unix(1760000000, 0)}, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		repo: &github.Repository{Name: "hello", FullName: "octo/hello", Description: "Says hello"},
		entries: []github.ContentEntry{
			{Name: "README", Path: "README", Type: "file"},
			{Name: "main.py", Path: "main.py", Type: "file", Size: 40},
			{Name: "notes.txt", Path: "notes.txt", Type: "file"},
			{Name: "src", Path: "src", Type: "dir"},
			{Name: "util.go", Path: "util.go", Type: "file", Size: 20},
			{Name: "logo.js", Path: "logo.js", Type: "file"},
		},
		files: map[string]string{
			"README":  "# Hello\nA friendly greeter.",
			"main.py": "import os\ndef main():\n    pass\n",
			"util.go": "package util\n\nfunc Add(a, b int) int { return a + b }\n",
		},
		remaining: 50,
	}
}

func newTestAnalyzer(t *testing.T, source RepoSource, maxFiles int) (*Analyzer, *usage.Ledger) {
	t.Helper()
	ledger, err := usage.Open(context.Background(), ledgerstore.NewMemoryStore(), usage.Options{Logger: logger.Discard()})
	require.NoError(t, err)

	a, err := New(Options{
		Source:     source,
		Summarizer: summarizer.NewChainSummarizer(summarizer.Options{Logger: logger.Discard()}),
		Ledger:     ledger,
		MaxFiles:   maxFiles,
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)
	return a, ledger
}

func TestAnalyze(t *testing.T) {
	source := newFakeSource()
	a, ledger := newTestAnalyzer(t, source, 0)

	report, err := a.Analyze(context.Background(), "https://github.com/octo/hello")
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "octo/hello", report.RepoInfo.FullName)
	assert.Equal(t, "hello - A professional project repository containing source code and documentation.", report.Description)

	require.Len(t, report.FileAnalysis, 2)
	assert.Equal(t, "main.py", report.FileAnalysis[0].File)
	assert.Equal(t, summarizer.MethodRuleBased, report.FileAnalysis[0].Method)
	assert.Equal(t, summarizer.RuleBasedSummary("main.py", source.files["main.py"]), report.FileAnalysis[0].Summary)
	assert.Equal(t, "util.go", report.FileAnalysis[1].File)
	assert.Equal(t, 2, report.TotalFilesAnalyzed)

	// repo + contents + 3 code files + readme + commits + contributors
	assert.Equal(t, 8, report.TokenUsage.GitHubAPICalls)
	assert.Zero(t, report.TokenUsage.AIAPICalls)
	assert.Zero(t, report.TokenUsage.TotalCostEstimate)
	assert.Equal(t, 50, report.TokenUsage.GitHubRateLimitRemaining)
	require.NotNil(t, report.TokenUsage.GitHubRateLimitReset)

	assert.Len(t, report.Commits, 1)
	assert.Len(t, report.Contributors, 1)

	assert.Equal(t, int64(8), ledger.Summary().Total.GitHubAPICalls)
	assert.Equal(t, int64(8), report.UsageSummary.Today.GitHubAPICalls)

	assert.Equal(t, 60, report.RateLimitStatus.Limit)
	assert.Equal(t, usage.StatusGood, report.RateLimitStatus.Status)
}

func TestAnalyzeRespectsMaxFiles(t *testing.T) {
	source := newFakeSource()
	a, _ := newTestAnalyzer(t, source, 1)

	report, err := a.Analyze(context.Background(), "octo/hello")
	require.NoError(t, err)
	require.Len(t, report.FileAnalysis, 1)
	assert.Equal(t, "main.py", report.FileAnalysis[0].File)
	assert.NotContains(t, source.fetched, "util.go")
}

func TestAnalyzeAuthenticatedLimit(t *testing.T) {
	source := newFakeSource()
	source.authenticated = true
	source.remaining = 100
	a, _ := newTestAnalyzer(t, source, 0)

	report, err := a.Analyze(context.Background(), "octo/hello")
	require.NoError(t, err)
	assert.Equal(t, 5000, report.RateLimitStatus.Limit)
	assert.Equal(t, usage.StatusWarning, report.RateLimitStatus.Status)
}

func TestAnalyzeHistoryFailureLeavesEmptySection(t *testing.T) {
	source := newFakeSource()
	source.commitsErr = errors.New("boom")
	a, _ := newTestAnalyzer(t, source, 0)

	report, err := a.Analyze(context.Background(), "octo/hello")
	require.NoError(t, err)
	assert.NotNil(t, report.Commits)
	assert.Empty(t, report.Commits)
	assert.Len(t, report.Contributors, 1)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		repoErr   error
		remaining int
		wantType  errortypes.ErrorType
	}{
		{"invalid url", "not-a-repo", nil, 50, errortypes.ErrorTypeValidation},
		{"not found", "octo/missing", errortypes.NotFoundError(errors.New("404"), "missing"), 50, errortypes.ErrorTypeNotFound},
		{"quota exhausted", "octo/hello", errortypes.NotFoundError(errors.New("404"), "missing"), 0, errortypes.ErrorTypeRateLimit},
		{"rate limited", "octo/hello", errortypes.RateLimitError(errors.New("403"), "limited"), 10, errortypes.ErrorTypeRateLimit},
		{"network", "octo/hello", errortypes.NetworkError(errors.New("refused"), "down"), 10, errortypes.ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newFakeSource()
			source.repoErr = tt.repoErr
			source.remaining = tt.remaining
			a, ledger := newTestAnalyzer(t, source, 0)

			_, err := a.Analyze(context.Background(), tt.url)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errortypes.TypeOf(err))
			assert.Zero(t, ledger.Summary().Total.GitHubAPICalls)
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
