package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ferry_console"

// Metrics holds all prometheus metrics
type Metrics struct {
	BackendRequests      *prometheus.CounterVec
	BackendLatency       *prometheus.HistogramVec
	HTTPRequests         *prometheus.CounterVec
	UnreadNotifications  prometheus.Gauge
	AuditPublishFailures prometheus.Counter
	ValidationFailures   *prometheus.CounterVec
}

// New registers the collectors on reg. Passing a fresh registry keeps tests isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of requests sent to the ferry backend.",
		}, []string{"method", "status"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of requests sent to the ferry backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of requests served by the gateway.",
		}, []string{"route", "status"}),
		UnreadNotifications: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unread_notifications",
			Help:      "Unread notification count seen by the last poll.",
		}),
		AuditPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publish_failures_total",
			Help:      "Audit events that could not be published.",
		}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Form submissions rejected by client-side validation.",
		}, []string{"form"}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the metrics registered on the global Prometheus registry
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Discard returns metrics registered on a throwaway registry
func Discard() *Metrics {
	return New(prometheus.NewRegistry())
}
