// Package metrics holds the Prometheus collectors shared by the gateway and
// the response cache. Collectors are registered once by the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GatewayCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "gateway_calls_total",
		Help:      "Web-service calls by function and outcome (ok, remote, network).",
	}, []string{"function", "outcome"})

	GatewayCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lectern",
		Name:      "gateway_call_duration_seconds",
		Help:      "Web-service call duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 15},
	}, []string{"function"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "cache_hits_total",
		Help:      "Cache hits by tier (memory, persistent).",
	}, []string{"tier"})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "cache_misses_total",
		Help:      "Reads that fell through to a synchronous fetch.",
	})

	CacheRevalidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "cache_revalidations_total",
		Help:      "Background revalidations by result (ok, error, discarded).",
	}, []string{"result"})

	CacheStoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "cache_store_errors_total",
		Help:      "Persistent tier failures by operation.",
	}, []string{"op"})

	AutologinTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "autologin_total",
		Help:      "Autologin bridge attempts by result (bridged, fallback).",
	}, []string{"result"})

	DirectivesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "directives_total",
		Help:      "Resolved render directives by kind.",
	}, []string{"kind"})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		GatewayCallsTotal,
		GatewayCallDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheRevalidationsTotal,
		CacheStoreErrorsTotal,
		AutologinTotal,
		DirectivesTotal,
	)
}
