package neighbors

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel = "kind"

	queryKindCardinal = "cardinal"
	queryKindOrdinal  = "ordinal"
	queryKindSquare   = "square"
	queryKindRounded  = "rounded"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neighbor_queries_total",
		Help: "The total number of neighborhood queries.",
	}, []string{kindLabel})

	queryResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neighbor_query_results",
		Help:    "The number of occupied cells returned by neighborhood queries.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{kindLabel})
)

func instrumentCountQuery(kind string, results int) {
	labels := prometheus.Labels{kindLabel: kind}
	queriesTotal.With(labels).Inc()
	queryResults.With(labels).Observe(float64(results))
}
