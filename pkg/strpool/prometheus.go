package strpool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring pool efficiency.
var (
	poolHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of strings reused from the string pool",
			Name:      "string_pool_hits_total",
			Namespace: "rds",
		},
	)
	poolMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of strings added to the string pool",
			Name:      "string_pool_misses_total",
			Namespace: "rds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		poolHits,
		poolMisses,
	)
}
