package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	appKeyLabel = "app_key"
)

var (
	sessionCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "session_count",
		Help: "The number of sessions.",
	}, []string{appKeyLabel})

	sessionCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_count_total",
		Help: "The total number of sessions.",
	}, []string{appKeyLabel})

	gridOccupiedCells = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grid_occupied_cells",
		Help:    "The number of occupied cells of a session grid after an update.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{appKeyLabel})

	objectSpawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "object_spawns_total",
		Help: "The total number of spawned objects.",
	})

	objectDespawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "object_despawns_total",
		Help: "The total number of despawned objects.",
	})
)

func instrumentIncreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseSessionGauge(appKey string) {
	sessionCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentCountSession(appKey string) {
	sessionCountTotal.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentObserveOccupiedCells(appKey string, n int) {
	gridOccupiedCells.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Observe(float64(n))
}

func instrumentCountSpawn() {
	objectSpawnsTotal.Inc()
}

func instrumentCountDespawn() {
	objectDespawnsTotal.Inc()
}
