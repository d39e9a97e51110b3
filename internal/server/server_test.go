package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/localrivet/reporeader/internal/analyzer"
	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/github"
	"github.com/localrivet/reporeader/internal/healthcheck"
	"github.com/localrivet/reporeader/internal/logger"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/tools"
	"github.com/localrivet/reporeader/internal/usage"
)

// MockService implements Service for testing
type MockService struct {
	AnalyzeErr       error
	Summary          usage.Summary
	Requests         []summarizer.Request
	AnalyzedURLs     []string
	HealthErr        error
	HealthStatus     summarizer.HealthStatus
	SummarizeText    string
	Checks           []healthcheck.Check
	CredentialChecks int
}

func (m *MockService) Summarize(ctx context.Context, req summarizer.Request) summarizer.Result {
	m.Requests = append(m.Requests, req)
	text := m.SummarizeText
	if text == "" {
		text = summarizer.RuleBasedSummary(req.Filename, req.Content)
	}
	return summarizer.Result{Text: text, Usage: summarizer.UsageRecord{Method: summarizer.MethodRuleBased}}
}

func (m *MockService) Analyze(ctx context.Context, repoURL string) (*analyzer.Report, error) {
	m.AnalyzedURLs = append(m.AnalyzedURLs, repoURL)
	if m.AnalyzeErr != nil {
		return nil, m.AnalyzeErr
	}
	return &analyzer.Report{
		ID:                 "report-1",
		GeneratedAt:        time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		RepoInfo:           &github.Repository{Name: "hello", FullName: "octo/hello"},
		Description:        "hello - A greeter.",
		FileAnalysis:       []analyzer.FileAnalysis{{File: "main.go", Summary: "Entry point."}},
		TotalFilesAnalyzed: 1,
	}, nil
}

func (m *MockService) UsageSummary() usage.Summary {
	return m.Summary
}

func (m *MockService) HealthReport() (*summarizer.HealthReport, error) {
	if m.HealthErr != nil {
		return nil, m.HealthErr
	}
	status := m.HealthStatus
	if status == "" {
		status = summarizer.StatusHealthy
	}
	return &summarizer.HealthReport{Status: status}, nil
}

func (m *MockService) CheckCredentials(ctx context.Context) []healthcheck.Check {
	m.CredentialChecks++
	return m.Checks
}

func newMCPServer(t *testing.T, svc Service) *MCPToolServer {
	t.Helper()
	server := NewMCPToolServer(svc, logger.Discard())
	if err := server.Initialize(); err != nil {
		t.Fatalf("Failed to initialize server: %v", err)
	}
	return server
}

func TestInitializeRequiresService(t *testing.T) {
	server := NewMCPToolServer(nil, logger.Discard())
	err := server.Initialize()
	if err == nil {
		t.Fatal("Expected error for missing service")
	}
	if errortypes.TypeOf(err) != errortypes.ErrorTypeConfig {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestStartRequiresInitialize(t *testing.T) {
	server := NewMCPToolServer(&MockService{}, logger.Discard())
	if err := server.Start(); err == nil {
		t.Fatal("Expected error when starting an uninitialized server")
	}
}

// TestSummarizeFile tests the summarize_file tool handler
func TestSummarizeFile(t *testing.T) {
	svc := &MockService{}
	server := newMCPServer(t, svc)

	req := tools.SummarizeFileRequest{
		Filename: "main.py",
		Content:  "def main():\n    pass\n",
	}

	response, err := server.handleSummarizeFile(nil, req)
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != tools.StatusSuccess {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if response.Summary != "This Python file contains 2 lines of code. 1 function(s)." {
		t.Errorf("Unexpected summary %q", response.Summary)
	}
	if response.Usage.Method != summarizer.MethodRuleBased {
		t.Errorf("Expected rule_based method, got %s", response.Usage.Method)
	}
	if len(svc.Requests) != 1 || svc.Requests[0].Filename != "main.py" {
		t.Errorf("Expected one request for main.py, got %+v", svc.Requests)
	}
}

func TestSummarizeFileRequiresFilename(t *testing.T) {
	svc := &MockService{}
	server := newMCPServer(t, svc)

	response, err := server.handleSummarizeFile(nil, tools.SummarizeFileRequest{Content: "x"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != tools.StatusError {
		t.Errorf("Expected status 'error', got '%s'", response.Status)
	}
	if response.Error == "" {
		t.Error("Expected error message")
	}
	if len(svc.Requests) != 0 {
		t.Error("Service should not be called for an invalid request")
	}
}

// TestAnalyzeRepository tests the analyze_repository tool handler
func TestAnalyzeRepository(t *testing.T) {
	svc := &MockService{}
	server := newMCPServer(t, svc)

	response, err := server.handleAnalyzeRepository(nil, tools.AnalyzeRepositoryRequest{GitHubURL: "octo/hello"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != tools.StatusSuccess {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if response.Report == nil || response.Report.RepoInfo.FullName != "octo/hello" {
		t.Errorf("Unexpected report %+v", response.Report)
	}
}

func TestAnalyzeRepositoryError(t *testing.T) {
	svc := &MockService{
		AnalyzeErr: errortypes.NotFoundError(errors.New("404"), `Repository "octo/missing" not found or is private.`),
	}
	server := newMCPServer(t, svc)

	response, err := server.handleAnalyzeRepository(nil, tools.AnalyzeRepositoryRequest{GitHubURL: "octo/missing"})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != tools.StatusError {
		t.Errorf("Expected status 'error', got '%s'", response.Status)
	}
	if response.Report != nil {
		t.Error("Expected no report")
	}
}

func TestUsageSummary(t *testing.T) {
	svc := &MockService{Summary: usage.Summary{Total: usage.Totals{GitHubAPICalls: 12}}}
	server := newMCPServer(t, svc)

	response, err := server.handleUsageSummary(nil, tools.UsageSummaryRequest{})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Summary.Total.GitHubAPICalls != 12 {
		t.Errorf("Expected 12 GitHub calls, got %d", response.Summary.Total.GitHubAPICalls)
	}
}

func TestRateLimitStatusTool(t *testing.T) {
	server := newMCPServer(t, &MockService{})

	response, err := server.handleRateLimitStatus(nil, tools.RateLimitStatusRequest{Remaining: 1, Limit: 60})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.RateStatus.Status != usage.StatusWarning {
		t.Errorf("Expected warning, got %s", response.RateStatus.Status)
	}

	response, _ = server.handleRateLimitStatus(nil, tools.RateLimitStatusRequest{Remaining: -1, Limit: 60})
	if response.Status != tools.StatusError {
		t.Errorf("Expected error for negative remaining, got %s", response.Status)
	}
}

func TestStopCancelsCallContext(t *testing.T) {
	server := newMCPServer(t, &MockService{})
	ctx := server.callContext()
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Expected call context to be canceled after Stop")
	}
}
