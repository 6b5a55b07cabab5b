package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "productivity_tracker",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record persisted to Postgres.",
	})

	submissionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "productivity_tracker",
		Subsystem: "api",
		Name:      "submissions_total",
		Help:      "Number of record submissions grouped by outcome.",
	}, []string{"outcome"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "productivity_tracker",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by route and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(recordPersistGauge, submissionCounter, requestDuration)
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}

// CountSubmission increments the submission counter; outcome is "accepted" or
// "rejected".
func CountSubmission(outcome string) {
	submissionCounter.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one HTTP request observation.
func ObserveRequest(route, status string, elapsed time.Duration) {
	requestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
