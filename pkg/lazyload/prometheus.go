package lazyload

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring lazy-load databases.
var (
	fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of lazy-load values fetched",
			Name:      "lazyload_fetches_total",
			Namespace: "rds",
		},
		[]string{"source"},
	)
	environments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of lazy-load environments restored",
			Name:      "lazyload_environments_total",
			Namespace: "rds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		fetches,
		environments,
	)
}
