// Package telemetry records API call and scenario events for a run.
//
// Every event is logged through the run's *slog.Logger, counted on a
// run-scoped Prometheus registry and, when a sink is attached, persisted to
// the history store. Metrics can be dumped in the text exposition format at
// the end of a run:
//
//	apiprobe_api_requests_total{api="AuditHistoryApi",method="GET",status="200"} 4
//	apiprobe_scenarios_total{result="passed"} 12
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	scenarios        *prometheus.CounterVec
	scenarioDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		apiRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiprobe_api_requests_total",
				Help: "API calls made by step definitions, by logical API, method and status code.",
			},
			[]string{"api", "method", "status"},
		),
		apiDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiprobe_api_request_duration_seconds",
				Help:    "Latency of API calls made by step definitions.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"api", "method"},
		),
		scenarios: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiprobe_scenarios_total",
				Help: "Executed scenarios, by result.",
			},
			[]string{"result"},
		),
		scenarioDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "apiprobe_scenario_duration_seconds",
				Help:    "Wall-clock duration of scenarios.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
}
