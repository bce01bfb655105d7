package entsoe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK               = "ok"
	outcomeThrottled        = "throttled"
	outcomeTransportError   = "transport_error"
	outcomeUnknownException = "unknown_exception"
	outcomeUnexpectedStatus = "unexpected_status"
)

type Metrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the fetcher metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entsoe",
			Name:      "requests_total",
			Help:      "Export requests sent to the transparency portal, by outcome.",
		}, []string{"endpoint", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entsoe",
			Name:      "retries_total",
			Help:      "Export requests retried after a suspected throttle.",
		}, []string{"endpoint"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entsoe",
			Name:      "request_duration_seconds",
			Help:      "Latency of export requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
