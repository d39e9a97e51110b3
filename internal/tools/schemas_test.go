package tools

import (
	"encoding/json"
	"testing"

	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/usage"
)

func TestSummarizeFileRequestFieldNames(t *testing.T) {
	var req SummarizeFileRequest
	if err := json.Unmarshal([]byte(`{"filename":"main.go","content":"package main"}`), &req); err != nil {
		t.Fatalf("Failed to unmarshal SummarizeFileRequest: %v", err)
	}
	if req.Filename != "main.go" || req.Content != "package main" {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestSummarizeFileResponseOmitsEmptyError(t *testing.T) {
	resp := SummarizeFileResponse{
		Status:  StatusSuccess,
		Summary: "A summary.",
		Usage:   summarizer.UsageRecord{APICalls: 1, TokensUsed: 20, Method: summarizer.MethodAI, Model: "gpt2"},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal SummarizeFileResponse: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}

	if _, ok := jsonMap["error"]; ok {
		t.Error("Expected error field to be omitted")
	}
	usageMap, ok := jsonMap["usage"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected usage object, got %v", jsonMap["usage"])
	}
	if usageMap["method_used"] != "ai" {
		t.Errorf("Expected method_used 'ai', got %v", usageMap["method_used"])
	}
}

func TestAnalyzeRepositoryRequestFieldNames(t *testing.T) {
	var req AnalyzeRepositoryRequest
	if err := json.Unmarshal([]byte(`{"github_url":"octo/hello"}`), &req); err != nil {
		t.Fatalf("Failed to unmarshal AnalyzeRepositoryRequest: %v", err)
	}
	if req.GitHubURL != "octo/hello" {
		t.Errorf("Expected github_url 'octo/hello', got %q", req.GitHubURL)
	}
}

func TestRateLimitStatusResponseShape(t *testing.T) {
	resp := RateLimitStatusResponse{
		Status:     StatusSuccess,
		RateStatus: usage.RateLimitStatus(10, 60),
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal RateLimitStatusResponse: %v", err)
	}

	var decoded struct {
		RateStatus map[string]interface{} `json:"rate_limit_status"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if decoded.RateStatus["status"] != "warning" {
		t.Errorf("Expected status 'warning', got %v", decoded.RateStatus["status"])
	}
	if decoded.RateStatus["limit"] != float64(60) {
		t.Errorf("Expected limit 60, got %v", decoded.RateStatus["limit"])
	}
}
