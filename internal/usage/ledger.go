// Package usage keeps the persistent ledger of GitHub and AI usage.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/ledgerstore"
	"github.com/localrivet/reporeader/internal/telemetry"
)

const (
	// DefaultRetentionDays is how long daily buckets are kept.
	DefaultRetentionDays = 30

	// HistoryDays is the number of daily buckets returned by Summary.
	HistoryDays = 7

	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Totals are the four additive usage counters.
type Totals = ledgerstore.Totals

// Snapshot is the full ledger state.
type Snapshot = ledgerstore.Snapshot

// Delta is one usage increment. All fields are added as-is.
type Delta struct {
	GitHubAPICalls int64
	AIAPICalls     int64
	AITokensUsed   int64
	TotalCost      float64
}

func (d Delta) totals() Totals {
	return Totals{
		GitHubAPICalls: d.GitHubAPICalls,
		AIAPICalls:     d.AIAPICalls,
		AITokensUsed:   d.AITokensUsed,
		TotalCost:      d.TotalCost,
	}
}

// DayUsage is one entry of the daily history.
type DayUsage struct {
	Date string `json:"date"`
	Totals
}

// Summary is the read view of the ledger.
type Summary struct {
	Today        Totals     `json:"today"`
	ThisMonth    Totals     `json:"this_month"`
	Total        Totals     `json:"total"`
	DailyHistory []DayUsage `json:"last_7_days"`
}

// Options configure a Ledger.
type Options struct {
	// Now returns the current time; defaults to time.Now.
	Now           func() time.Time
	RetentionDays int
	Logger        *slog.Logger
	Metrics       *telemetry.MetricsCollector
}

// Ledger accumulates usage by day, month and lifetime and persists the
// whole snapshot after every change.
type Ledger struct {
	mu       sync.Mutex
	store    ledgerstore.Store
	snapshot Snapshot
	// persistErr is the most recent save failure, nil once a save succeeds.
	persistErr error

	now       func() time.Time
	retention int
	logger    *slog.Logger
	metrics   *telemetry.MetricsCollector
}

// Open loads the ledger from store. A load failure is logged and the ledger
// starts empty.
func Open(ctx context.Context, store ledgerstore.Store, opts Options) (*Ledger, error) {
	if store == nil {
		return nil, errortypes.ValidationError(nil, "ledger store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetricsCollector()
	}

	l := &Ledger{
		store:     store,
		now:       opts.Now,
		retention: opts.RetentionDays,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		errortypes.LogError(l.logger, errortypes.PersistenceError(err, "failed to load usage ledger, starting empty"))
		snapshot = ledgerstore.NewSnapshot()
	}
	if snapshot.Daily == nil {
		snapshot.Daily = make(map[string]Totals)
	}
	if snapshot.Monthly == nil {
		snapshot.Monthly = make(map[string]Totals)
	}
	l.snapshot = snapshot

	return l, nil
}

// Record adds d to today's, this month's and the lifetime buckets, prunes
// expired days and persists. Persistence failures are logged; the in-memory
// ledger stays authoritative.
func (l *Ledger) Record(ctx context.Context, d Delta) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	day := now.Format(dayLayout)
	month := now.Format(monthLayout)
	inc := d.totals()

	l.snapshot.Daily[day] = l.snapshot.Daily[day].Add(inc)
	l.snapshot.Monthly[month] = l.snapshot.Monthly[month].Add(inc)
	l.snapshot.Total = l.snapshot.Total.Add(inc)

	l.prune(now)

	if err := l.store.Save(ctx, l.snapshot); err != nil {
		l.metrics.IncrementCounter(telemetry.MetricLedgerPersistFailures, 1)
		l.persistErr = errortypes.PersistenceError(err, "failed to persist usage ledger").WithField("day", day)
		errortypes.LogError(l.logger, l.persistErr)
		return
	}
	l.persistErr = nil
}

// Err returns the most recent persistence failure, or nil if the last save
// succeeded.
func (l *Ledger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistErr
}

// prune drops daily buckets older than the retention window. Keys are
// YYYY-MM-DD so string order is date order.
func (l *Ledger) prune(now time.Time) {
	cutoff := now.AddDate(0, 0, -l.retention).Format(dayLayout)
	for day := range l.snapshot.Daily {
		if day < cutoff {
			delete(l.snapshot.Daily, day)
		}
	}
}

// Summary returns today, this month, the lifetime total and the most recent
// daily buckets in date order.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	summary := Summary{
		Today:     l.snapshot.Daily[now.Format(dayLayout)],
		ThisMonth: l.snapshot.Monthly[now.Format(monthLayout)],
		Total:     l.snapshot.Total,
	}

	keys := l.snapshot.DailyKeys()
	if len(keys) > HistoryDays {
		keys = keys[len(keys)-HistoryDays:]
	}
	summary.DailyHistory = make([]DayUsage, 0, len(keys))
	for _, k := range keys {
		summary.DailyHistory = append(summary.DailyHistory, DayUsage{Date: k, Totals: l.snapshot.Daily[k]})
	}
	return summary
}

// Snapshot returns a copy of the current ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot.Clone()
}

// Close closes the underlying store.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Close()
}
