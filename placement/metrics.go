package placement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel = "kind"

	placementKindInsert = "insert"
	placementKindUpdate = "update"
)

var (
	placementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placements_total",
		Help: "The total number of objects placed into a grid.",
	}, []string{kindLabel})

	placementsTrackedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "placements_tracked_total",
		Help: "The total number of objects queued for placement.",
	})

	placementSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "placement_sync_duration_seconds",
		Help: "The time to place the objects tracked during a frame.",
	})
)

func instrumentCountPlacement(kind string) {
	placementsTotal.
		With(prometheus.Labels{kindLabel: kind}).
		Inc()
}

func instrumentCountTracked() {
	placementsTrackedTotal.Inc()
}

func instrumentObserveSync(d time.Duration) {
	placementSyncDuration.Observe(d.Seconds())
}
