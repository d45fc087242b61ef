// Package metrics provides Prometheus instrumentation for shopdesk.
//
// The devtools server exposes the registry on GET /metrics:
//
//	r.Get("/metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APICallDuration tracks backend call latency by host, method and status
	// ("error" when no response arrived).
	APICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopdesk",
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend REST calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"host", "method", "status"},
	)

	// ActionsDispatched counts actions reduced by the store.
	ActionsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdesk",
			Subsystem: "store",
			Name:      "actions_dispatched_total",
			Help:      "Total actions dispatched to the store.",
		},
		[]string{"type"},
	)

	// WorkerOutcomes counts saga worker completions.
	WorkerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdesk",
			Subsystem: "saga",
			Name:      "workers_total",
			Help:      "Saga workers by trigger and outcome.",
		},
		[]string{"trigger", "outcome"}, // "done" | "cancelled" | "panic"
	)

	// WorkersInFlight tracks running saga workers.
	WorkersInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopdesk",
		Subsystem: "saga",
		Name:      "workers_in_flight",
		Help:      "Number of saga workers currently running.",
	})

	// TokenRefreshes counts bearer token refresh attempts.
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdesk",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Bearer token refresh attempts by result.",
		},
		[]string{"result"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdesk",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"driver"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopdesk",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"driver"},
	)
)

// DefaultRegistry is the registry every shopdesk metric lives in.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		APICallDuration,
		ActionsDispatched,
		WorkerOutcomes,
		WorkersInFlight,
		TokenRefreshes,
		CacheHits,
		CacheMisses,
	)
}

// Handler exposes the registry in the Prometheus text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// ObserveAPICall records one backend call:
//
//	defer metrics.ObserveAPICall(host, "GET", "200", time.Now())
func ObserveAPICall(host, method, status string, start time.Time) {
	APICallDuration.WithLabelValues(host, method, status).Observe(time.Since(start).Seconds())
}

// RecordCache counts a cache lookup for driver.
func RecordCache(driver string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(driver).Inc()
		return
	}
	CacheMisses.WithLabelValues(driver).Inc()
}
