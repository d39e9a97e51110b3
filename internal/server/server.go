package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/tools"
	"github.com/localrivet/reporeader/internal/usage"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// MCPToolServer implements ToolServer for MCP clients over stdio.
type MCPToolServer struct {
	service   Service
	logger    *slog.Logger
	mcpServer server.Server

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMCPToolServer creates a new MCPToolServer instance.
func NewMCPToolServer(service Service, logger *slog.Logger) *MCPToolServer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MCPToolServer{
		service: service,
		logger:  logger.With("component", "mcp"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Initialize registers the tools.
func (s *MCPToolServer) Initialize() error {
	s.logger.Info("Initializing MCP tool server")

	if s.service == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	srv := server.NewServer("reporeader")

	srv = srv.Tool(tools.ToolSummarizeFile, "Summarize a source file, falling back to a rule-based summary when no model answers",
		s.handleSummarizeFile)

	srv = srv.Tool(tools.ToolAnalyzeRepository, "Analyze a public GitHub repository and record the usage it incurs",
		s.handleAnalyzeRepository)

	srv = srv.Tool(tools.ToolUsageSummary, "Report GitHub and AI usage for today, this month and in total",
		s.handleUsageSummary)

	srv = srv.Tool(tools.ToolRateLimitStatus, "Classify a GitHub rate limit reading",
		s.handleRateLimitStatus)

	s.mcpServer = srv
	s.logger.Info("MCP tool server initialized", "tool_count", 4)
	return nil
}

// Start serves MCP over stdio.
func (s *MCPToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.logger.Info("Starting MCP tool server")
	return s.mcpServer.AsStdio().Run()
}

// Stop cancels in-flight tool calls. The transport exits when stdin closes.
func (s *MCPToolServer) Stop() error {
	s.logger.Info("Stopping MCP tool server")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	return nil
}

func (s *MCPToolServer) callContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// handleSummarizeFile handles the summarize_file MCP tool call.
func (s *MCPToolServer) handleSummarizeFile(ctx *server.Context, req tools.SummarizeFileRequest) (tools.SummarizeFileResponse, error) {
	s.logger.Info("Processing summarize_file request", "filename", req.Filename, "content_length", len(req.Content))

	response := tools.SummarizeFileResponse{Status: tools.StatusSuccess}

	if strings.TrimSpace(req.Filename) == "" {
		err := errortypes.ValidationError(errors.New("filename cannot be empty"), "invalid summarize_file request")
		errortypes.LogError(s.logger, err)
		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	result := s.service.Summarize(s.callContext(), summarizer.Request{Filename: req.Filename, Content: req.Content})
	response.Summary = result.Text
	response.Usage = result.Usage

	s.logger.Info("Summarized file", "filename", req.Filename, "method", result.Usage.Method)
	return response, nil
}

// handleAnalyzeRepository handles the analyze_repository MCP tool call.
func (s *MCPToolServer) handleAnalyzeRepository(ctx *server.Context, req tools.AnalyzeRepositoryRequest) (tools.AnalyzeRepositoryResponse, error) {
	s.logger.Info("Processing analyze_repository request", "github_url", req.GitHubURL)

	response := tools.AnalyzeRepositoryResponse{Status: tools.StatusSuccess}

	report, err := s.service.Analyze(s.callContext(), req.GitHubURL)
	if err != nil {
		errortypes.LogError(s.logger, err)
		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	response.Report = report
	s.logger.Info("Analyzed repository", "github_url", req.GitHubURL, "files", report.TotalFilesAnalyzed)
	return response, nil
}

// handleUsageSummary handles the usage_summary MCP tool call.
func (s *MCPToolServer) handleUsageSummary(ctx *server.Context, req tools.UsageSummaryRequest) (tools.UsageSummaryResponse, error) {
	return tools.UsageSummaryResponse{
		Status:  tools.StatusSuccess,
		Summary: s.service.UsageSummary(),
	}, nil
}

// handleRateLimitStatus handles the rate_limit_status MCP tool call.
func (s *MCPToolServer) handleRateLimitStatus(ctx *server.Context, req tools.RateLimitStatusRequest) (tools.RateLimitStatusResponse, error) {
	response := tools.RateLimitStatusResponse{Status: tools.StatusSuccess}

	if req.Remaining < 0 || req.Limit < 0 {
		err := errortypes.ValidationError(errors.New("remaining and limit must not be negative"), "invalid rate_limit_status request")
		errortypes.LogError(s.logger, err)
		response.Status = tools.StatusError
		response.Error = err.Error()
		return response, nil
	}

	response.RateStatus = usage.RateLimitStatus(req.Remaining, req.Limit)
	return response, nil
}
