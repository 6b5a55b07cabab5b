package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "productivity_tracker",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Number of outbox events successfully published to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "productivity_tracker",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Number of outbox delivery attempts that failed and were left for retry.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "productivity_tracker",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent fetching, delivering, and marking outbox batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	batchSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "productivity_tracker",
		Subsystem: "outbox",
		Name:      "last_batch_size",
		Help:      "Number of events claimed by the most recent poll; zero when the table is drained.",
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, batchDuration, batchSizeGauge)
}

// observeBatchSize records the claimed batch size, including empty polls so
// the gauge drops back to zero once the backlog drains.
func observeBatchSize(n int) {
	batchSizeGauge.Set(float64(n))
}
