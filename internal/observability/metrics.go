package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationLatency records load/save latency per collection.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "joints_store_operation_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// StoreErrors counts failed store operations.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joints_store_errors_total",
		Help: "Total number of failed document store operations",
	}, []string{"operation", "collection"})

	// LockWait records how long a mutation waited for its collection lock.
	LockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "joints_collection_lock_wait_seconds",
		Help:    "Time spent waiting for a collection lock",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	// NormalizationFixups counts loads whose records needed backfilling.
	NormalizationFixups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joints_normalization_fixups_total",
		Help: "Total number of loads that persisted a schema fix-up",
	}, []string{"collection"})
)

// TrackStore returns a function that records latency when called (e.g. defer).
func TrackStore(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
