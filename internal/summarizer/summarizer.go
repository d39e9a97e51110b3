// Package summarizer turns source files and repository READMEs into short
// descriptions, using remote text-generation backends when configured and
// deterministic heuristics otherwise.
package summarizer

import "context"

// Method records how a summary was produced.
type Method string

const (
	// MethodRuleBased marks summaries produced by the offline heuristics or the static fallback
	MethodRuleBased Method = "rule_based"
	// MethodAI marks summaries produced by a remote backend
	MethodAI Method = "ai"
)

// Request is one file to summarize.
type Request struct {
	Filename string
	Content  string
}

// UsageRecord is the per-call usage accounting. APICalls counts calls that
// reached a backend, excluding the single extra call after a cold start,
// which is counted in ColdStartRetries.
type UsageRecord struct {
	APICalls         int    `json:"api_calls"`
	ColdStartRetries int    `json:"cold_start_retries"`
	TokensUsed       int    `json:"tokens_used"`
	Method           Method `json:"method_used"`
	Model            string `json:"model_used,omitempty"`
}

// Result is a summary together with its usage.
type Result struct {
	Text  string      `json:"summary"`
	Usage UsageRecord `json:"usage"`
}

// Summarizer produces a summary for a file. Summarize never fails.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) Result
}
