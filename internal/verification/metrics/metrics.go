package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification engine. All observe
// helpers are nil-safe so the engine can run unmetered in tests.
type Metrics struct {
	// Per-check latencies by check name
	CheckLatency *prometheus.HistogramVec

	// Verification outcomes by status and validity
	Outcome *prometheus.CounterVec

	// Anomaly findings by type and severity
	Findings *prometheus.CounterVec

	// Overall verification latency including all checks
	VerifyLatency prometheus.Histogram
}

// New registers and returns the engine metrics.
func New() *Metrics {
	return &Metrics{
		CheckLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certiva_verification_check_duration_seconds",
			Help:    "Duration of individual verification checks",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"check"}),

		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certiva_verification_outcomes_total",
			Help: "Total verification outcomes by status and validity",
		}, []string{"status", "valid"}),

		Findings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certiva_verification_anomaly_findings_total",
			Help: "Total anomaly findings by type and severity",
		}, []string{"type", "severity"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certiva_verification_duration_seconds",
			Help:    "Duration of full verification including all checks",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveCheckLatency records the duration of one sub-check.
func (m *Metrics) ObserveCheckLatency(check string, d time.Duration) {
	if m != nil {
		m.CheckLatency.WithLabelValues(check).Observe(d.Seconds())
	}
}

// IncrementOutcome records a completed verification outcome.
func (m *Metrics) IncrementOutcome(status, valid string) {
	if m != nil {
		m.Outcome.WithLabelValues(status, valid).Inc()
	}
}

// IncrementFinding records one anomaly finding.
func (m *Metrics) IncrementFinding(findingType, severity string) {
	if m != nil {
		m.Findings.WithLabelValues(findingType, severity).Inc()
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
