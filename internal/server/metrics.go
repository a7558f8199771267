package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instrumentation for the HTTP server. Each
// Metrics value carries its own registry, so multiple servers (and tests)
// can coexist in one process without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	activeRequests   prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with a dedicated registry, including
// the standard Go runtime and process collectors.
//
// Returns:
//   - *Metrics: The initialized instrumentation.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fibserve_active_requests",
			Help: "Number of HTTP requests currently being served.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibserve_requests_total",
			Help: "Total HTTP requests by path and method.",
		}, []string{"path", "method"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibserve_submissions_total",
			Help: "Total index submissions by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fibserve_request_duration_seconds",
			Help:    "HTTP request latency by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
	registry.MustRegister(m.activeRequests, m.requestsTotal, m.submissionsTotal, m.requestDuration)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// IncrementActiveRequests increments the in-flight request gauge.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// CountRequest records one served request.
func (m *Metrics) CountRequest(path, method string) {
	m.requestsTotal.WithLabelValues(path, method).Inc()
}

// CountSubmission records one submission outcome ("accepted", "rejected" or
// "unavailable").
func (m *Metrics) CountSubmission(outcome string) {
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequestDuration records request latency in seconds for a path.
func (m *Metrics) ObserveRequestDuration(path string, seconds float64) {
	m.requestDuration.WithLabelValues(path).Observe(seconds)
}

// WritePrometheus serves the registry contents in Prometheus exposition
// format.
//
// Parameters:
//   - w: The response writer.
//   - r: The incoming request.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
