package analyzer

import (
	"time"

	"github.com/localrivet/reporeader/internal/github"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/usage"
)

// FileAnalysis is the summary of one file.
type FileAnalysis struct {
	File       string            `json:"file"`
	Path       string            `json:"path"`
	Summary    string            `json:"summary"`
	Size       int64             `json:"size"`
	TokensUsed int               `json:"tokens_used"`
	Method     summarizer.Method `json:"method_used"`
	Model      string            `json:"model_used,omitempty"`
}

// TokenUsage is the usage incurred by one analysis.
type TokenUsage struct {
	GitHubAPICalls           int        `json:"github_api_calls"`
	GitHubRateLimitRemaining int        `json:"github_rate_limit_remaining"`
	GitHubRateLimitReset     *time.Time `json:"github_rate_limit_reset"`
	AIAPICalls               int        `json:"ai_api_calls"`
	AITokensUsed             int        `json:"ai_tokens_used"`
	ColdStartRetries         int        `json:"cold_start_retries"`
	TotalCostEstimate        float64    `json:"total_cost_estimate"`
}

// Report is the result of a repository analysis.
type Report struct {
	ID                 string               `json:"id"`
	GeneratedAt        time.Time            `json:"generated_at"`
	RepoInfo           *github.Repository   `json:"repo_info"`
	Description        string               `json:"description"`
	FileAnalysis       []FileAnalysis       `json:"file_analysis"`
	Commits            []github.Commit      `json:"commits"`
	Contributors       []github.Contributor `json:"contributors"`
	TotalFilesAnalyzed int                  `json:"total_files_analyzed"`
	TokenUsage         TokenUsage           `json:"token_usage"`
	UsageSummary       usage.Summary        `json:"usage_summary"`
	RateLimitStatus    usage.RateStatus     `json:"rate_limit_status"`
}
