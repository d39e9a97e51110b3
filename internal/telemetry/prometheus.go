package telemetry

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reporeader"

// Collector exports a MetricsCollector to Prometheus. Metric names are
// derived from the collector keys at scrape time, so it registers as an
// unchecked collector.
type Collector struct {
	metrics *MetricsCollector
}

// NewCollector wraps m for registration with a prometheus.Registerer.
func NewCollector(m *MetricsCollector) *Collector {
	return &Collector{metrics: m}
}

// Describe sends nothing; see Collector.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for key, v := range c.metrics.Counters() {
		name, backend := SplitMetric(key)
		ch <- prometheus.MustNewConstMetric(
			desc(name, "_total", "Counter "+name),
			prometheus.CounterValue, float64(v), backend,
		)
	}

	for key, v := range c.metrics.Gauges() {
		name, backend := SplitMetric(key)
		ch <- prometheus.MustNewConstMetric(
			desc(name, "", "Gauge "+name),
			prometheus.GaugeValue, v, backend,
		)
	}

	for key, s := range c.metrics.Timers() {
		name, backend := SplitMetric(key)
		ch <- prometheus.MustNewConstSummary(
			desc(name, "_seconds", "Durations of "+name+"; the quantile covers recent samples"),
			s.TotalCount, s.TotalSum.Seconds(),
			map[float64]float64{0.95: s.P95.Seconds()},
			backend,
		)
	}
}

// Register adds an exporter for m to reg.
func Register(reg prometheus.Registerer, m *MetricsCollector) error {
	return reg.Register(NewCollector(m))
}

func desc(name, suffix, help string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", PromName(name)+suffix),
		help,
		[]string{"backend"},
		nil,
	)
}

// PromName converts a dotted metric key to a Prometheus-safe name.
func PromName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
