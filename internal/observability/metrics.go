// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Range cache metrics
	CacheSlotLookups *prometheus.CounterVec
	CacheGapFetches  prometheus.Counter
	CacheEvictions   prometheus.Counter
	CacheBuckets     prometheus.Gauge

	// Backend metrics
	BackendFetchLatency prometheus.Histogram
	BackendFetchErrors  prometheus.Counter
	BackendFetchSeconds prometheus.Histogram

	// Engine metrics
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	QueriesPending prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "fill_stats"
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheSlotLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "slot_lookups_total",
			Help:      "Slot bucket lookups by result (hit, miss)",
		}, []string{"result"}),
		CacheGapFetches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "gap_fetches_total",
			Help:      "Total number of uncovered sub-ranges fetched from the backend",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of slot buckets evicted",
		}),
		CacheBuckets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "buckets",
			Help:      "Current number of slot buckets held",
		}),

		BackendFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "fetch_latency_seconds",
			Help:      "Backend fetch latency in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		BackendFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed backend fetches",
		}),
		BackendFetchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "fetch_window_seconds",
			Help:      "Length of requested fetch windows in seconds",
			Buckets:   prometheus.ExponentialBuckets(60, 4, 8),
		}),

		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "queries_total",
			Help:      "Total number of queries by kind and status",
		}, []string{"kind", "status"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "query_duration_seconds",
			Help:      "Query execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		QueriesPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "queries_pending",
			Help:      "Submitted queries not yet drained",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordSlotLookup records a slot bucket lookup.
func RecordSlotLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheSlotLookups.WithLabelValues(result).Inc()
}

// RecordGapFetch increments the gap fetch counter.
func RecordGapFetch() {
	DefaultMetrics.CacheGapFetches.Inc()
}

// RecordEviction increments the eviction counter.
func RecordEviction() {
	DefaultMetrics.CacheEvictions.Inc()
}

// UpdateBucketCount sets the bucket gauge.
func UpdateBucketCount(n int) {
	DefaultMetrics.CacheBuckets.Set(float64(n))
}

// RecordBackendFetch records a backend fetch.
func RecordBackendFetch(windowSeconds uint64, latencySeconds float64, err error) {
	DefaultMetrics.BackendFetchSeconds.Observe(float64(windowSeconds))
	DefaultMetrics.BackendFetchLatency.Observe(latencySeconds)
	if err != nil {
		DefaultMetrics.BackendFetchErrors.Inc()
	}
}

// RecordQuery records a finished query.
func RecordQuery(kind, status string, seconds float64) {
	DefaultMetrics.QueriesTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.QueryDuration.WithLabelValues(kind).Observe(seconds)
}

// AddPendingQueries moves the pending query gauge by delta.
func AddPendingQueries(delta int) {
	DefaultMetrics.QueriesPending.Add(float64(delta))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
