// Package telemetry provides metrics collection and reporting
// for monitoring the summarization pipeline and its upstream calls.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricsCollector provides a thread-safe interface for collecting
// application metrics for monitoring and troubleshooting.
type MetricsCollector struct {
	counters map[string]int64
	gauges   map[string]float64
	// timers keeps a bounded window of recent samples for averages and p95;
	// totals keeps the cumulative count and sum for export.
	timers map[string][]time.Duration
	totals map[string]timerTotal
	mu     sync.RWMutex
}

type timerTotal struct {
	count uint64
	sum   time.Duration
}

// Summarizer metrics. Names marked per backend are combined with a backend
// identifier through BackendMetric.
const (
	// Logical summarization requests and their outcome
	MetricRequests = "summarizer.requests"
	MetricDegraded = "summarizer.degraded"

	// Per backend call accounting
	MetricBackendCalls      = "summarizer.backend.calls"
	MetricBackendSuccess    = "summarizer.backend.success"
	MetricBackendFailure    = "summarizer.backend.failure"
	MetricRetryAttempts     = "summarizer.backend.retries"
	MetricColdStarts        = "summarizer.backend.cold_starts"
	MetricQualityRejections = "summarizer.backend.quality_rejections"
	MetricExhausted         = "summarizer.backend.exhausted"

	// Response times
	MetricResponseTime = "summarizer.backend.response_time"
	MetricTotalTime    = "summarizer.total_time"

	// Provider health gauge, 1 healthy / 0 unhealthy
	MetricProviderHealth = "summarizer.backend.health"

	// Upstream GitHub and ledger
	MetricGitHubCalls           = "github.api_calls"
	MetricGitHubErrors          = "github.errors"
	MetricLedgerPersistFailures = "ledger.persist_failures"
	MetricAnalyses              = "analyzer.analyses"
	MetricAnalysisTime          = "analyzer.total_time"
)

const labelSep = "|"

// BackendMetric scopes a metric name to one backend.
func BackendMetric(name, backend string) string {
	return name + labelSep + backend
}

// SplitMetric separates a metric key into its name and backend label.
// The backend is empty for unscoped metrics.
func SplitMetric(key string) (name, backend string) {
	if i := strings.Index(key, labelSep); i >= 0 {
		return key[:i], key[i+len(labelSep):]
	}
	return key, ""
}

// maxTimerSamples bounds the window kept per timer.
const maxTimerSamples = 100

// TimerStats summarizes one timer. Count, Sum, Avg and P95 cover the
// retained window; TotalCount and TotalSum cover every recorded sample.
type TimerStats struct {
	Count      int
	Sum        time.Duration
	Avg        time.Duration
	P95        time.Duration
	TotalCount uint64
	TotalSum   time.Duration
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timers:   make(map[string][]time.Duration),
		totals:   make(map[string]timerTotal),
	}
}

// IncrementCounter increments a named counter by the specified amount
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name] += amount
}

// SetGauge sets a named gauge to the specified value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] = value
}

// RecordTimer records a duration for the specified timer
func (m *MetricsCollector) RecordTimer(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers[name] = append(m.timers[name], duration)
	if len(m.timers[name]) > maxTimerSamples {
		m.timers[name] = m.timers[name][1:]
	}

	t := m.totals[name]
	t.count++
	t.sum += duration
	m.totals[name] = t
}

// GetCounter retrieves the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// SumCounters adds up a counter across every backend it was recorded for.
func (m *MetricsCollector) SumCounters(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for key, v := range m.counters {
		if n, _ := SplitMetric(key); n == name {
			total += v
		}
	}
	return total
}

// GetGauge retrieves the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// GetTimerAverage calculates the average duration for a timer
func (m *MetricsCollector) GetTimerAverage(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return timerStats(m.timers[name]).Avg
}

// GetTimerP95 calculates the 95th percentile duration for a timer
func (m *MetricsCollector) GetTimerP95(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return timerStats(m.timers[name]).P95
}

func timerStats(durations []time.Duration) TimerStats {
	if len(durations) == 0 {
		return TimerStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return TimerStats{
		Count: len(sorted),
		Sum:   total,
		Avg:   total / time.Duration(len(sorted)),
		P95:   sorted[idx],
	}
}

// Counters returns a copy of all counters.
func (m *MetricsCollector) Counters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// Gauges returns a copy of all gauges.
func (m *MetricsCollector) Gauges() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		out[k] = v
	}
	return out
}

// Timers returns statistics for every timer.
func (m *MetricsCollector) Timers() map[string]TimerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]TimerStats, len(m.timers))
	for k, v := range m.timers {
		st := timerStats(v)
		st.TotalCount = m.totals[k].count
		st.TotalSum = m.totals[k].sum
		out[k] = st
	}
	return out
}

// GetReport generates a report of all collected metrics
func (m *MetricsCollector) GetReport() string {
	counters := m.Counters()
	gauges := m.Gauges()
	timers := m.Timers()

	var b strings.Builder
	b.WriteString("Metrics Report:\n")
	b.WriteString("==============\n\n")

	b.WriteString("Counters:\n")
	for _, name := range sortedKeys(counters) {
		fmt.Fprintf(&b, "  %s: %d\n", name, counters[name])
	}

	b.WriteString("\nGauges:\n")
	for _, name := range sortedKeys(gauges) {
		fmt.Fprintf(&b, "  %s: %.2f\n", name, gauges[name])
	}

	b.WriteString("\nTimers (avg):\n")
	for _, name := range sortedKeys(timers) {
		s := timers[name]
		fmt.Fprintf(&b, "  %s: avg=%v p95=%v count=%d\n", name, s.Avg, s.P95, s.TotalCount)
	}

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
