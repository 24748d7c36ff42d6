package metrics

import "github.com/prometheus/client_golang/prometheus"

// Classification Prometheus metrics.
var (
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "malscan",
			Name:      "classifications_total",
			Help:      "Total number of classification requests",
		},
		[]string{"label"}, // "benign" / "malicious"
	)

	ClassificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "malscan",
			Name:      "classification_duration_seconds",
			Help:      "End-to-end classification duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "extract" / "score"
	)

	ClassificationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "malscan",
			Name:      "classification_errors_total",
			Help:      "Total classification failures resolved by the fallback policy",
		},
		[]string{"reason"},
	)

	VerdictCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "malscan",
			Name:      "verdict_cache_total",
			Help:      "Verdict cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var classifyMetricsRegistered bool

// RegisterClassificationMetrics registers Prometheus classification metrics. Must be called once from main.
func RegisterClassificationMetrics() {
	if classifyMetricsRegistered {
		return
	}
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(ClassificationDuration)
	prometheus.MustRegister(ClassificationErrorsTotal)
	prometheus.MustRegister(VerdictCacheTotal)
	classifyMetricsRegistered = true
}
