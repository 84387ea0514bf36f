package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the veracity engine.
type Metrics struct {
	// Cache lookups by result
	CacheLookups *prometheus.CounterVec

	// Factor check latencies by factor
	FactorLatency *prometheus.HistogramVec

	// Factor check results by factor and result
	FactorResults *prometheus.CounterVec

	// Re-checks that fell back to the cached value after a failure
	Fallbacks prometheus.Counter

	// Per-package outcomes by result, across all batches
	Outcomes *prometheus.CounterVec

	// Wall-clock duration of whole batch evaluations
	BatchDuration prometheus.Histogram
}

// New creates a new Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verax_analysis_cache_lookups_total",
			Help: "Total checks-cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		FactorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verax_analysis_factor_check_duration_seconds",
			Help:    "Duration of factor checks against external authorities",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"factor"}), // factor: "provenance", "reproducibility"

		FactorResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verax_analysis_factor_results_total",
			Help: "Total factor check results by factor and result",
		}, []string{"factor", "result"}), // result: "present", "absent", "error"

		Fallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verax_analysis_fallbacks_total",
			Help: "Total re-checks that returned the cached value after a check failure",
		}),

		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verax_batch_outcomes_total",
			Help: "Total per-package outcomes by result",
		}, []string{"result"}), // result: "evaluated", "failed"

		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verax_batch_duration_seconds",
			Help:    "Duration of whole batch evaluations including aggregation",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveFactorLatency records the duration of one factor check.
func (m *Metrics) ObserveFactorLatency(factor string, d time.Duration) {
	if m != nil {
		m.FactorLatency.WithLabelValues(factor).Observe(d.Seconds())
	}
}

// IncrementFactorResult records the result of one factor check.
func (m *Metrics) IncrementFactorResult(factor, result string) {
	if m != nil {
		m.FactorResults.WithLabelValues(factor, result).Inc()
	}
}

// IncrementFallback records a re-check that degraded to the cached value.
func (m *Metrics) IncrementFallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

// IncrementOutcome records one per-package outcome.
func (m *Metrics) IncrementOutcome(result string) {
	if m != nil {
		m.Outcomes.WithLabelValues(result).Inc()
	}
}

// ObserveBatchDuration records the total duration of a batch evaluation.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}
