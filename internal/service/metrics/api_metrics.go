package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cascade",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of cascade API endpoints",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by cascade API endpoint and reason",
		},
		[]string{"endpoint", "reason"},
	)

	HistoryCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "api",
			Name:      "history_cache_total",
			Help:      "Transition history cache lookups by result",
		},
		[]string{"result"},
	)
)

// Register adds the API collectors to reg once.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(APILatency, APIErrors, HistoryCacheHits)
	})
}
