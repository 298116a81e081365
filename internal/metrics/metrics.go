package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the projection engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Calculations        *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
	OptimizerRuns       *prometheus.CounterVec
	InflationFallbacks  prometheus.Counter
	FetchErrors         *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsmart_calculations_total",
				Help: "Goal projection batches by outcome",
			},
			[]string{"outcome"},
		),
		CalculationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spendsmart_calculation_duration_seconds",
				Help:    "Duration of a goal projection batch including data fetch",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		OptimizerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsmart_optimizer_runs_total",
				Help: "Portfolio optimizer runs by final status",
			},
			[]string{"status"},
		),
		InflationFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spendsmart_inflation_fallbacks_total",
				Help: "Calculations that used the default inflation rate",
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsmart_fetch_errors_total",
				Help: "Failed upstream data fetches by provider",
			},
			[]string{"provider"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsmart_cache_lookups_total",
				Help: "Provider cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.Calculations, m.CalculationDuration, m.OptimizerRuns,
			m.InflationFallbacks, m.FetchErrors, m.CacheLookups,
		)
	}
	return m
}

// ObserveCalculation records a finished batch.
func (m *Metrics) ObserveCalculation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(outcome).Inc()
	m.CalculationDuration.Observe(d.Seconds())
}

// ObserveOptimizer records the status of one optimizer run.
func (m *Metrics) ObserveOptimizer(status string) {
	if m == nil {
		return
	}
	m.OptimizerRuns.WithLabelValues(status).Inc()
}

// InflationFallback records a calculation that used the default rate.
func (m *Metrics) InflationFallback() {
	if m == nil {
		return
	}
	m.InflationFallbacks.Inc()
}

// FetchError records a failed upstream fetch.
func (m *Metrics) FetchError(provider string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(provider).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
