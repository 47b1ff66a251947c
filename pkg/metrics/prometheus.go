package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
)

var _ drepo.Metrics = (*Recorder)(nil)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticks       *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	transitions *prometheus.CounterVec
	light       *prometheus.GaugeVec
	score       *prometheus.GaugeVec
	features    *prometheus.GaugeVec
	autoBlock   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates the recorder and registers its vectors with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_ticks_ingested_total",
				Help: "Ticks applied to a detector",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_light_transitions_total",
				Help: "Light changes by symbol and direction",
			},
			[]string{"symbol", "from", "to"},
		),
		light: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascade_light",
				Help: "Current light severity (0 green .. 3 red)",
			},
			[]string{"symbol"},
		),
		score: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascade_score",
				Help: "Raw score of the latest tick",
			},
			[]string{"symbol"},
		),
		features: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascade_feature",
				Help: "Latest feature values",
			},
			[]string{"symbol", "feature"},
		),
		autoBlock: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascade_auto_block",
				Help: "1 when automated entries are blocked",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cascade_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordTick(symbol string) {
	r.ticks.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordStatus(s models.CascadeStatus) {
	r.light.WithLabelValues(s.Symbol).Set(float64(s.Light.Severity()))
	r.score.WithLabelValues(s.Symbol).Set(float64(s.Score))
	r.features.WithLabelValues(s.Symbol, "lq").Set(s.LQ)
	r.features.WithLabelValues(s.Symbol, "ret").Set(s.RET)
	r.features.WithLabelValues(s.Symbol, "oi").Set(s.OI)
	r.features.WithLabelValues(s.Symbol, "doi_1m").Set(s.DOI1m)
	r.features.WithLabelValues(s.Symbol, "doi_3m").Set(s.DOI3m)
	r.features.WithLabelValues(s.Symbol, "rq").Set(float64(s.RQ))

	var blocked float64
	if s.AutoBlock {
		blocked = 1
	}
	r.autoBlock.WithLabelValues(s.Symbol).Set(blocked)
}

func (r *Recorder) RecordTransition(t *models.Transition) {
	r.transitions.WithLabelValues(t.Symbol, string(t.From), string(t.To)).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Forget drops the per-symbol series of an unwatched symbol.
func (r *Recorder) Forget(symbol string) {
	r.ticks.DeleteLabelValues(symbol)
	r.light.DeleteLabelValues(symbol)
	r.score.DeleteLabelValues(symbol)
	r.autoBlock.DeleteLabelValues(symbol)
	for _, f := range []string{"lq", "ret", "oi", "doi_1m", "doi_3m", "rq"} {
		r.features.DeleteLabelValues(symbol, f)
	}
	r.transitions.DeletePartialMatch(prometheus.Labels{"symbol": symbol})
}
