package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once
	registerer  prometheus.Registerer = prometheus.DefaultRegisterer

	producerMsgsTotal   *prometheus.CounterVec
	producerBytesTotal  *prometheus.CounterVec
	producerLatencyHist *prometheus.HistogramVec

	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerResultsTotal  *prometheus.CounterVec
)

// SetMetricsRegisterer swaps the registerer used for kafka metrics. It must be
// called before the first producer or consumer is created.
func SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg != nil {
		registerer = reg
	}
}

func initMetrics() {
	metricsOnce.Do(func() {
		f := promauto.With(registerer)
		producerMsgsTotal = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "kafka_producer",
			Name:      "messages_total",
			Help:      "Messages published to Kafka",
		}, []string{"topic", "result"})
		producerBytesTotal = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "kafka_producer",
			Name:      "bytes_total",
			Help:      "Payload bytes published",
		}, []string{"topic"})
		producerLatencyHist = f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cascade",
			Subsystem: "kafka_producer",
			Name:      "publish_seconds",
			Help:      "Publish latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"})

		consumerQueueDepth = f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cascade",
			Subsystem: "kafka_consumer",
			Name:      "queue_depth",
			Help:      "Messages waiting for a worker",
		}, []string{"topic"})
		consumerHandleLatency = f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cascade",
			Subsystem: "kafka_consumer",
			Name:      "handle_seconds",
			Help:      "Handling time per message including retries",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .5, 1},
		}, []string{"topic"})
		consumerResultsTotal = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Subsystem: "kafka_consumer",
			Name:      "messages_total",
			Help:      "Consumed messages by outcome",
		}, []string{"topic", "result"})
	})
}

func observePublish(topic string, bytes int64, count int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMsgsTotal.WithLabelValues(topic, result).Add(float64(count))
	producerBytesTotal.WithLabelValues(topic).Add(float64(bytes))
	producerLatencyHist.WithLabelValues(topic).Observe(dur.Seconds())
}
