package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all prometheus metrics for steward.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// steward_constituents_scored_total - counter for scoring runs
	ConstituentsScoredTotal *prometheus.CounterVec

	// steward_alerts_generated_total - counter for alerts by type and severity
	AlertsGeneratedTotal *prometheus.CounterVec

	// steward_scoring_sweep_duration_seconds - histogram for the sweep worker
	ScoringSweepDuration prometheus.Histogram

	// steward_portfolio_imbalance_score - gauge per organization and dimension
	PortfolioImbalanceScore *prometheus.GaugeVec
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		ConstituentsScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steward_constituents_scored_total",
				Help: "Total number of constituent scoring runs",
			},
			[]string{"organization_id", "outcome"},
		),

		AlertsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "steward_alerts_generated_total",
				Help: "Total number of alerts generated by the anomaly sweeps",
			},
			[]string{"type", "severity"},
		),

		ScoringSweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "steward_scoring_sweep_duration_seconds",
			Help:    "Duration of organization scoring sweeps in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
		}),

		PortfolioImbalanceScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "steward_portfolio_imbalance_score",
				Help: "Latest portfolio dispersion score per organization and dimension",
			},
			[]string{"organization_id", "dimension"},
		),
	}

	// register all custom metrics
	reg.MustRegister(
		m.HTTPRequestDuration,
		m.ConstituentsScoredTotal,
		m.AlertsGeneratedTotal,
		m.ScoringSweepDuration,
		m.PortfolioImbalanceScore,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// RecordConstituentScored increments the scoring counter.
func (m *Metrics) RecordConstituentScored(organizationID, outcome string) {
	m.ConstituentsScoredTotal.WithLabelValues(organizationID, outcome).Inc()
}

// RecordAlertGenerated increments the alert counter.
func (m *Metrics) RecordAlertGenerated(alertType, severity string) {
	m.AlertsGeneratedTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordScoringSweep records the duration of one scoring sweep.
func (m *Metrics) RecordScoringSweep(durationSeconds float64) {
	m.ScoringSweepDuration.Observe(durationSeconds)
}

// SetPortfolioImbalance sets the latest dispersion score for a dimension.
func (m *Metrics) SetPortfolioImbalance(organizationID, dimension string, score float64) {
	m.PortfolioImbalanceScore.WithLabelValues(organizationID, dimension).Set(score)
}
