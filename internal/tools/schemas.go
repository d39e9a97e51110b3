// Package tools defines the request and response shapes shared by the MCP
// tools and the HTTP API.
package tools

import (
	"github.com/localrivet/reporeader/internal/analyzer"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/usage"
)

const (
	// ToolSummarizeFile is the name of the summarize_file MCP tool
	ToolSummarizeFile = "summarize_file"

	// ToolAnalyzeRepository is the name of the analyze_repository MCP tool
	ToolAnalyzeRepository = "analyze_repository"

	// ToolUsageSummary is the name of the usage_summary MCP tool
	ToolUsageSummary = "usage_summary"

	// ToolRateLimitStatus is the name of the rate_limit_status MCP tool
	ToolRateLimitStatus = "rate_limit_status"

	StatusSuccess = "success"
	StatusError   = "error"
)

// SummarizeFileRequest defines the input schema for summarize_file
type SummarizeFileRequest struct {
	// Filename is used for the language hint and the rule-based fallback
	Filename string `json:"filename"`

	// Content is the file text
	Content string `json:"content"`
}

// SummarizeFileResponse defines the output schema for summarize_file
type SummarizeFileResponse struct {
	Status  string                 `json:"status"`
	Summary string                 `json:"summary,omitempty"`
	Usage   summarizer.UsageRecord `json:"usage"`
	Error   string                 `json:"error,omitempty"`
}

// AnalyzeRepositoryRequest defines the input schema for analyze_repository
type AnalyzeRepositoryRequest struct {
	// GitHubURL accepts a full URL or owner/repo
	GitHubURL string `json:"github_url"`
}

// AnalyzeRepositoryResponse defines the output schema for analyze_repository
type AnalyzeRepositoryResponse struct {
	Status string           `json:"status"`
	Report *analyzer.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// UsageSummaryRequest takes no arguments.
type UsageSummaryRequest struct{}

// UsageSummaryResponse defines the output schema for usage_summary
type UsageSummaryResponse struct {
	Status  string        `json:"status"`
	Summary usage.Summary `json:"summary"`
	Error   string        `json:"error,omitempty"`
}

// RateLimitStatusRequest defines the input schema for rate_limit_status
type RateLimitStatusRequest struct {
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

// RateLimitStatusResponse defines the output schema for rate_limit_status
type RateLimitStatusResponse struct {
	Status     string           `json:"status"`
	RateStatus usage.RateStatus `json:"rate_limit_status"`
	Error      string           `json:"error,omitempty"`
}
