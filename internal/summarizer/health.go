package summarizer

import (
	"fmt"
	"time"

	"github.com/localrivet/reporeader/internal/telemetry"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	// StatusHealthy indicates a component is fully operational
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded indicates a component is operational but with reduced capability
	StatusDegraded HealthStatus = "degraded"

	// StatusUnhealthy indicates a component is not operational
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Version is reported in health reports.
var Version = "dev"

// HealthReport describes the summarization pipeline from its recorded metrics.
type HealthReport struct {
	Status        HealthStatus       `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	Components    map[string]string  `json:"components"`
	Providers     map[string]bool    `json:"providers"`
	ResponseTimes map[string]float64 `json:"response_times_ms"`
	SuccessRate   float64            `json:"success_rate"`
	TotalRequests int64              `json:"total_requests"`
	Degraded      int64              `json:"degraded_requests"`
	Version       string             `json:"version"`
}

// CreateHealthReport derives pipeline health from recorded outcomes without
// making calls. A backend is unhealthy once it has failures and no success.
// With no backends configured the pipeline is degraded to rule-based text.
func CreateHealthReport(s *ChainSummarizer) (*HealthReport, error) {
	if s == nil {
		return nil, fmt.Errorf("summarizer is nil")
	}

	m := s.GetMetrics()
	if m == nil {
		return nil, fmt.Errorf("metrics collector is nil")
	}

	backends := s.Backends()
	providerHealth := make(map[string]bool, len(backends))
	responseTimes := map[string]float64{
		"total": toMillis(m.GetTimerAverage(telemetry.MetricTotalTime)),
	}

	working := 0
	for _, name := range backends {
		success := m.GetCounter(telemetry.BackendMetric(telemetry.MetricBackendSuccess, name))
		failure := m.GetCounter(telemetry.BackendMetric(telemetry.MetricBackendFailure, name))
		healthy := !(failure > 0 && success == 0)
		providerHealth[name] = healthy
		if healthy {
			working++
		}
		m.SetGauge(telemetry.BackendMetric(telemetry.MetricProviderHealth, name), boolToFloat64(healthy))
		responseTimes[name] = toMillis(m.GetTimerAverage(telemetry.BackendMetric(telemetry.MetricResponseTime, name)))
	}

	status := StatusHealthy
	switch {
	case len(backends) == 0:
		status = StatusDegraded
	case working == 0:
		status = StatusUnhealthy
	case working < len(backends):
		status = StatusDegraded
	}

	totalSuccess := m.SumCounters(telemetry.MetricBackendSuccess)
	totalFailure := m.SumCounters(telemetry.MetricBackendFailure)
	var successRate float64
	if attempts := totalSuccess + totalFailure; attempts > 0 {
		successRate = float64(totalSuccess) / float64(attempts) * 100.0
	}

	components := map[string]string{
		"rule_based": string(StatusHealthy),
		"primary":    string(StatusUnhealthy),
		"fallbacks":  string(StatusUnhealthy),
	}
	for i, name := range backends {
		if !providerHealth[name] {
			continue
		}
		if i == 0 {
			components["primary"] = string(StatusHealthy)
		} else {
			components["fallbacks"] = string(StatusHealthy)
		}
	}
	if len(backends) == 0 {
		components["primary"] = "not_configured"
		components["fallbacks"] = "not_configured"
	} else if len(backends) == 1 {
		components["fallbacks"] = "not_configured"
	}

	return &HealthReport{
		Status:        status,
		Timestamp:     time.Now(),
		Components:    components,
		Providers:     providerHealth,
		ResponseTimes: responseTimes,
		SuccessRate:   successRate,
		TotalRequests: m.GetCounter(telemetry.MetricRequests),
		Degraded:      m.GetCounter(telemetry.MetricDegraded),
		Version:       Version,
	}, nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// boolToFloat64 converts a boolean to a float64 (1.0 for true, 0.0 for false)
func boolToFloat64(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
