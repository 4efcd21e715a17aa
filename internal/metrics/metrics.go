// Package metrics builds the Prometheus instruments used by the history backend.
package metrics

import (
	"net/http"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MakeMetrics returns a request counter and a request latency summary
// registered with registry. Both are labeled by method and outcome.
//
//	counter, latency := metrics.MakeMetrics(registry, "alarm_history", "backend")
func MakeMetrics(
	registry stdprometheus.Registerer,
	namespace, subsystem string,
) (*kitprometheus.Counter, *kitprometheus.Summary) {
	counter := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of alarm history requests received.",
	}, []string{"method", "outcome"})
	latency := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
		Namespace:  namespace,
		Subsystem:  subsystem,
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		Name:       "request_latency_seconds",
		Help:       "Total duration of alarm history requests in seconds.",
	}, []string{"method", "outcome"})

	registry.MustRegister(counter, latency)

	return kitprometheus.NewCounter(counter), kitprometheus.NewSummary(latency)
}

// Handler exposes the metrics gathered by registry.
func Handler(registry *stdprometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
