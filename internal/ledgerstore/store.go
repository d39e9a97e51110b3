// Package ledgerstore provides durable storage for the usage ledger.
package ledgerstore

import (
	"context"
	"sort"
)

// Scope names used for the three ledger views.
const (
	ScopeDaily   = "daily"
	ScopeMonthly = "monthly"
	ScopeTotal   = "total"

	// TotalBucket is the single bucket of the total scope
	TotalBucket = "all"
)

// Totals are the four additive usage counters.
type Totals struct {
	GitHubAPICalls int64   `json:"github_api_calls"`
	AIAPICalls     int64   `json:"ai_api_calls"`
	AITokensUsed   int64   `json:"ai_tokens_used"`
	TotalCost      float64 `json:"total_cost"`
}

// Add returns t increased by d.
func (t Totals) Add(d Totals) Totals {
	return Totals{
		GitHubAPICalls: t.GitHubAPICalls + d.GitHubAPICalls,
		AIAPICalls:     t.AIAPICalls + d.AIAPICalls,
		AITokensUsed:   t.AITokensUsed + d.AITokensUsed,
		TotalCost:      t.TotalCost + d.TotalCost,
	}
}

// Snapshot is the whole ledger: per-day buckets keyed YYYY-MM-DD, per-month
// buckets keyed YYYY-MM and the lifetime total.
type Snapshot struct {
	Daily   map[string]Totals `json:"daily_usage"`
	Monthly map[string]Totals `json:"monthly_usage"`
	Total   Totals            `json:"total_usage"`
}

// NewSnapshot returns an empty snapshot with initialized maps.
func NewSnapshot() Snapshot {
	return Snapshot{
		Daily:   make(map[string]Totals),
		Monthly: make(map[string]Totals),
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := NewSnapshot()
	for k, v := range s.Daily {
		out.Daily[k] = v
	}
	for k, v := range s.Monthly {
		out.Monthly[k] = v
	}
	out.Total = s.Total
	return out
}

// DailyKeys returns the daily bucket keys in ascending date order.
func (s Snapshot) DailyKeys() []string {
	keys := make([]string, 0, len(s.Daily))
	for k := range s.Daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store defines the interface for loading and saving ledger snapshots.
// Save always writes the full snapshot.
type Store interface {
	// Initialize opens the store at path.
	Initialize(path string) error

	// Load returns the persisted snapshot, or an empty one if nothing was saved yet.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snapshot Snapshot) error

	// Close closes the store and releases any resources.
	Close() error
}
