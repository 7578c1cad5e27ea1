package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, staleLocksReclaimed, sweepDuration) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "itinerary_jobs_processed_total",
		Help: "Total number of itinerary jobs processed, labeled by outcome.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var staleLocksReclaimed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "itinerary_stale_locks_reclaimed_total",
		Help: "In-progress jobs reset to pending after their lock went stale.",
	},
)

var sweepDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "itinerary_sweep_duration_seconds",
		Help:    "Duration of one full processor sweep over the queue store.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
	},
)

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncStaleLockReclaimed() {
	staleLocksReclaimed.Inc()
}

func ObserveSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}
