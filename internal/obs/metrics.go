package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's collectors on one registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimited         prometheus.Counter

	Logins          *prometheus.CounterVec
	Recognitions    *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	CriticalAlerts  prometheus.Counter
}

// New registers every collector on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests refused by the per-client rate limiter.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"result"}),
		Recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_recognitions_total",
			Help: "Face recognitions by source and outcome.",
		}, []string{"source", "outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_events_published_total",
			Help: "Security events handed to the queue, by type.",
		}, []string{"type"}),
		CriticalAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campus_critical_alerts_total",
			Help: "Critical security events seen by the worker.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPInFlight, m.HTTPRequestsTotal, m.HTTPRequestDuration, m.RateLimited,
		m.Logins, m.Recognitions, m.EventsPublished, m.CriticalAlerts,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
