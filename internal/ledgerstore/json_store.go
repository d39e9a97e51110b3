package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// JSONFileStore keeps the snapshot in a single JSON document.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
}

// fileTotals is the on-disk bucket. Files written by older releases used
// huggingface_* keys and total_cost_estimate; they are read and folded in.
type fileTotals struct {
	GitHubAPICalls     int64    `json:"github_api_calls"`
	AIAPICalls         int64    `json:"ai_api_calls"`
	AITokensUsed       int64    `json:"ai_tokens_used"`
	TotalCost          float64  `json:"total_cost"`
	LegacyAPICalls     *int64   `json:"huggingface_api_calls,omitempty"`
	LegacyTokensUsed   *int64   `json:"huggingface_tokens_used,omitempty"`
	LegacyCostEstimate *float64 `json:"total_cost_estimate,omitempty"`
}

type fileSnapshot struct {
	Daily   map[string]fileTotals `json:"daily_usage"`
	Monthly map[string]fileTotals `json:"monthly_usage"`
	Total   fileTotals            `json:"total_usage"`
}

func (f fileTotals) totals() Totals {
	t := Totals{
		GitHubAPICalls: f.GitHubAPICalls,
		AIAPICalls:     f.AIAPICalls,
		AITokensUsed:   f.AITokensUsed,
		TotalCost:      f.TotalCost,
	}
	if f.LegacyAPICalls != nil {
		t.AIAPICalls += *f.LegacyAPICalls
	}
	if f.LegacyTokensUsed != nil {
		t.AITokensUsed += *f.LegacyTokensUsed
	}
	if f.LegacyCostEstimate != nil {
		t.TotalCost += *f.LegacyCostEstimate
	}
	return t
}

// NewJSONFileStore creates a new JSONFileStore instance.
func NewJSONFileStore() *JSONFileStore {
	return &JSONFileStore{}
}

// Initialize sets the file path and makes sure its directory exists.
func (s *JSONFileStore) Initialize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		return errors.New("ledger file path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	s.path = path
	return nil
}

// Path returns the ledger file location.
func (s *JSONFileStore) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Load reads the ledger file. A missing file is an empty ledger.
func (s *JSONFileStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := NewSnapshot()
	if s.path == "" {
		return snapshot, errors.New("json store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return snapshot, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return snapshot, nil
	}
	if err != nil {
		return snapshot, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var file fileSnapshot
	if err := json.Unmarshal(data, &file); err != nil {
		return snapshot, fmt.Errorf("failed to decode ledger file: %w", err)
	}

	for k, v := range file.Daily {
		snapshot.Daily[k] = v.totals()
	}
	for k, v := range file.Monthly {
		snapshot.Monthly[k] = v.totals()
	}
	snapshot.Total = file.Total.totals()
	return snapshot, nil
}

// Save writes the snapshot to a temporary file and renames it over the ledger.
func (s *JSONFileStore) Save(ctx context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("json store not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if snapshot.Daily == nil {
		snapshot.Daily = map[string]Totals{}
	}
	if snapshot.Monthly == nil {
		snapshot.Monthly = map[string]Totals{}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}

// Close is a no-op; every Save leaves a complete file behind.
func (s *JSONFileStore) Close() error {
	return nil
}
