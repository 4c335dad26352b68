package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all metrics of the test health service. Each instance owns
// its own registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Classification metrics
	classifications  *prometheus.CounterVec
	backendFallbacks prometheus.Counter
	backendCalls     *prometheus.HistogramVec

	// Engine metrics
	omissions       prometheus.Counter
	analysisSeconds prometheus.Histogram
	lastHealthScore prometheus.Gauge
	reportsStored   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testhealth_classifications_total",
			Help: "Failure classifications produced, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		backendFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testhealth_backend_fallbacks_total",
			Help: "Backend calls that fell back to rule-based classification.",
		}),
		backendCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "testhealth_backend_call_seconds",
			Help:    "Latency of classification backend calls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"backend"}),

		omissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testhealth_omissions_total",
			Help: "Malformed input records skipped during analysis.",
		}),
		analysisSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "testhealth_analysis_seconds",
			Help:    "Wall time of a complete analysis.",
			Buckets: prometheus.DefBuckets,
		}),
		lastHealthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "testhealth_last_health_score",
			Help: "Health score of the most recent analysis.",
		}),
		reportsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "testhealth_reports_stored_total",
			Help: "Reports persisted to the history store.",
		}),
	}

	m.registry.MustRegister(
		m.classifications,
		m.backendFallbacks,
		m.backendCalls,
		m.omissions,
		m.analysisSeconds,
		m.lastHealthScore,
		m.reportsStored,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveClassification records one classification.
func (m *Metrics) ObserveClassification(backend string, degraded bool) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.classifications.WithLabelValues(backend, outcome).Inc()
}

// ObserveFallback records one fallback to rule-based classification.
func (m *Metrics) ObserveFallback() {
	m.backendFallbacks.Inc()
}

// ObserveBackendCall records the latency of one backend call.
func (m *Metrics) ObserveBackendCall(backend string, elapsed time.Duration) {
	m.backendCalls.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveAnalysis records a finished analysis.
func (m *Metrics) ObserveAnalysis(elapsed time.Duration, healthScore, omissions int) {
	m.analysisSeconds.Observe(elapsed.Seconds())
	m.lastHealthScore.Set(float64(healthScore))
	m.omissions.Add(float64(omissions))
}

// ObserveReportStored records a persisted report.
func (m *Metrics) ObserveReportStored() {
	m.reportsStored.Inc()
}
