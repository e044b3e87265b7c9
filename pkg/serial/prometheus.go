package serial

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring codec usage.
var (
	serializeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of serialization calls by result",
			Name:      "serialize_calls_total",
			Namespace: "rds",
		},
		[]string{"result"},
	)
	deserializeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of deserialization calls by result",
			Name:      "deserialize_calls_total",
			Namespace: "rds",
		},
		[]string{"result"},
	)
	serializedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Total size of serialized streams",
			Name:      "serialized_bytes_total",
			Namespace: "rds",
		},
	)
	deserializedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Total size of successfully deserialized streams",
			Name:      "deserialized_bytes_total",
			Namespace: "rds",
		},
	)
)

func init() {
	prometheus.MustRegister(
		serializeCalls,
		deserializeCalls,
		serializedBytes,
		deserializedBytes,
	)
}
