// Package metrics exposes Prometheus collectors for solver activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RunsTotal counts completed solver runs.
	RunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wayfarer",
		Name:      "runs_total",
		Help:      "Number of completed solver runs.",
	})

	// GenerationsTotal counts generations processed across all runs.
	GenerationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wayfarer",
		Name:      "generations_total",
		Help:      "Number of generations processed.",
	})

	// EvaluationsTotal counts fitness evaluations across all runs.
	EvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wayfarer",
		Name:      "evaluations_total",
		Help:      "Number of fitness evaluations performed.",
	})

	// FrontSize reports the size of the last observed Pareto front per problem.
	FrontSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wayfarer",
		Name:      "front_size",
		Help:      "Size of the most recent non-dominated front.",
	}, []string{"problem"})
)

func init() {
	prometheus.MustRegister(RunsTotal, GenerationsTotal, EvaluationsTotal, FrontSize)
}
