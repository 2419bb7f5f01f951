// Package metrics provides Prometheus metrics export for the format endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for format requests.
const (
	OutcomeOK            = "ok"
	OutcomeMissingInput  = "missing_input"
	OutcomeFormatFailure = "format_failure"
)

// PrometheusExporter exports format endpoint metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	formatRequests *prometheus.CounterVec
	formatLatency  *prometheus.HistogramVec
	formatInFlight prometheus.Gauge
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.formatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "codepolish",
			Name:      "format_requests_total",
			Help:      "Total number of format requests",
		},
		[]string{"parser", "outcome"},
	)

	e.formatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "codepolish",
			Name:      "format_duration_seconds",
			Help:      "Formatter invocation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"parser"},
	)

	e.formatInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "codepolish",
			Name:      "format_in_flight",
			Help:      "Number of formatter invocations in progress",
		},
	)

	registry.MustRegister(
		e.formatRequests,
		e.formatLatency,
		e.formatInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return e
}

// RecordFormatRequest counts a finished format request.
func (e *PrometheusExporter) RecordFormatRequest(parser, outcome string) {
	e.formatRequests.WithLabelValues(parser, outcome).Inc()
}

// RecordFormatLatency records how long the formatter ran.
func (e *PrometheusExporter) RecordFormatLatency(parser string, latency time.Duration) {
	e.formatLatency.WithLabelValues(parser).Observe(latency.Seconds())
}

// TrackInFlight marks a formatter invocation as running until the returned func is called.
func (e *PrometheusExporter) TrackInFlight() func() {
	e.formatInFlight.Inc()
	return e.formatInFlight.Dec
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the underlying registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
