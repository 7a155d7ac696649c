package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing Prometheus metrics.
var (
	IndexingJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indexing_jobs_total",
			Help:      "Indexing jobs by operation and outcome",
		},
		[]string{"op", "status"}, // op: upsert|remove|heal|reindex, status: success|error|dropped|skipped
	)

	IndexingPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indexing_points_written_total",
			Help:      "Points written to the vector store",
		},
	)

	DispatcherQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "dispatcher_queue_depth",
			Help:      "Jobs waiting in the indexing dispatcher queue",
		},
	)

	RetryQueueScheduledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retry_queue_scheduled_total",
			Help:      "Native ids scheduled for healing",
		},
		[]string{"reason"}, // failed|queue_full
	)

	CatalogEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "catalog_events_total",
			Help:      "Catalog change notifications received",
		},
		[]string{"type", "status"}, // status: accepted|rejected|malformed
	)

	ReindexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reindex_duration_seconds",
			Help:      "Full reindex duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

var indexingMetricsRegistered bool

// RegisterIndexingMetrics registers Prometheus indexing metrics. Safe to call more than once.
func RegisterIndexingMetrics() {
	if indexingMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexingJobsTotal)
	prometheus.MustRegister(IndexingPointsTotal)
	prometheus.MustRegister(DispatcherQueueDepth)
	prometheus.MustRegister(RetryQueueScheduledTotal)
	prometheus.MustRegister(CatalogEventsTotal)
	prometheus.MustRegister(ReindexDuration)
	indexingMetricsRegistered = true
}
