// Package metrics provides Prometheus metrics for the recommendation API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports recommendation metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	results  *prometheus.HistogramVec
}

// NewExporter creates a new metrics exporter with its own registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animatch_recommendation_requests_total",
			Help: "Total recommendation requests by operation and status.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "animatch_recommendation_duration_seconds",
			Help:    "Recommendation request latency by operation.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "animatch_recommendation_results",
			Help:    "Number of recommendations returned per request.",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		}, []string{"operation"}),
	}

	registry.MustRegister(e.requests, e.latency, e.results)
	return e
}

// ObserveRequest records one completed recommendation request.
func (e *Exporter) ObserveRequest(operation string, duration time.Duration, resultCount int) {
	status := "ok"
	if resultCount == 0 {
		status = "empty"
	}
	e.requests.WithLabelValues(operation, status).Inc()
	e.latency.WithLabelValues(operation).Observe(duration.Seconds())
	e.results.WithLabelValues(operation).Observe(float64(resultCount))
}

// Handler returns the /metrics HTTP handler.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
