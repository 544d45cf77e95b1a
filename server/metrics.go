package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corebank/ledger/protocol"
)

// Metrics collects per-method request counters and latencies.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates a metrics collector on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankd",
			Name:      "requests_total",
			Help:      "Number of handled requests by method and response code.",
		}, []string{"method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bankd",
			Name:      "request_duration_seconds",
			Help:      "Request handling latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method protocol.Method, code protocol.Code, d time.Duration) {
	m.requests.WithLabelValues(string(method), string(code)).Inc()
	m.duration.WithLabelValues(string(method)).Observe(d.Seconds())
}

// HTTPHandler exposes the collected metrics in Prometheus text format.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
