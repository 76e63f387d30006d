package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TriggersTotal counts trigger attempts by terminal outcome
	// (accepted, rejected reason, rate_limited, dispatch_failed).
	TriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_triggers_total",
			Help: "Total number of webhook trigger attempts.",
		},
		[]string{"outcome"},
	)

	// DispatchDurationSeconds observes external push dispatch latency.
	DispatchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_dispatch_duration_seconds",
			Help:    "Duration of external push dispatch calls.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AuthAttemptsTotal counts credential resolutions by kind and result.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of credential resolution attempts.",
		},
		[]string{"kind", "result"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// MustRegister registers all collectors with the default registry.
// Safe to call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TriggersTotal,
			DispatchDurationSeconds,
			AuthAttemptsTotal,
			HTTPRequestsTotal,
		)
	})
}
