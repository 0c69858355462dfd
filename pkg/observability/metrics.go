package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Business metrics
	CollocationsInserted prometheus.Counter
	DuplicatesSkipped    prometheus.Counter
	CollocationsDeleted  prometheus.Counter

	// Generator metrics
	GeneratorRequests *prometheus.CounterVec
	GeneratorDuration prometheus.Histogram
}

// NewCollector creates a collector with its own registry so that tests can
// build as many as they like without duplicate registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		},
		[]string{"operation", "driver", "status"},
	)

	storeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Record store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "driver"},
	)

	inserted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collocations_inserted_total",
			Help:      "Total number of collocations inserted",
		},
	)

	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collocations_duplicates_skipped_total",
			Help:      "Total number of bulk-inserted collocations skipped as duplicates",
		},
	)

	deleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collocations_deleted_total",
			Help:      "Total number of collocations deleted",
		},
	)

	generatorRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      "Total number of generator calls by outcome",
		},
		[]string{"outcome"},
	)

	generatorDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_request_duration_seconds",
			Help:      "Generator call duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90},
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		storeOperations,
		storeDuration,
		inserted,
		skipped,
		deleted,
		generatorRequests,
		generatorDuration,
	)

	return &Collector{
		registry:             registry,
		HTTPRequests:         httpRequests,
		HTTPDuration:         httpDuration,
		StoreOperations:      storeOperations,
		StoreDuration:        storeDuration,
		CollocationsInserted: inserted,
		DuplicatesSkipped:    skipped,
		CollocationsDeleted:  deleted,
		GeneratorRequests:    generatorRequests,
		GeneratorDuration:    generatorDuration,
	}
}

// RecordStoreOperation records the outcome and latency of one store call
func (c *Collector) RecordStoreOperation(operation, driver string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.StoreOperations.WithLabelValues(operation, driver, status).Inc()
	c.StoreDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
}

// RecordGeneration records one generator call; outcome is "success" or the failing stage
func (c *Collector) RecordGeneration(outcome string, duration time.Duration) {
	c.GeneratorRequests.WithLabelValues(outcome).Inc()
	c.GeneratorDuration.Observe(duration.Seconds())
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
