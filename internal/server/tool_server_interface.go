// Package server provides the MCP and HTTP front ends for reporeader.
package server

import (
	"context"

	"github.com/localrivet/reporeader/internal/analyzer"
	"github.com/localrivet/reporeader/internal/healthcheck"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/usage"
)

// ToolServer defines the lifecycle shared by the front ends.
type ToolServer interface {
	// Initialize registers tools or routes.
	Initialize() error

	// Start serves until the transport closes or Stop is called.
	Start() error

	// Stop gracefully shuts down the server.
	Stop() error
}

// Service is the application behind both front ends.
type Service interface {
	Summarize(ctx context.Context, req summarizer.Request) summarizer.Result
	Analyze(ctx context.Context, repoURL string) (*analyzer.Report, error)
	UsageSummary() usage.Summary
	HealthReport() (*summarizer.HealthReport, error)
	CheckCredentials(ctx context.Context) []healthcheck.Check
}
