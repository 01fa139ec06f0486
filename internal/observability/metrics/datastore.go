// Package metrics provides datastore metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for database operations.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec

	imageCount   prometheus.Gauge
	paletteCount prometheus.Gauge
	databaseSize prometheus.Gauge
}

// NewDatastoreMetrics creates a new DatastoreMetrics instance.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() error {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation"},
	)

	m.imageCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_images",
			Help: "Number of indexed images in the database",
		},
	)

	m.paletteCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_palettes",
			Help: "Number of stored palettes in the database",
		},
	)

	m.databaseSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datastore_database_size_bytes",
			Help: "Size of the database file in bytes",
		},
	)

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.imageCount.Describe(ch)
	m.paletteCount.Describe(ch)
	m.databaseSize.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.imageCount.Collect(ch)
	m.paletteCount.Collect(ch)
	m.databaseSize.Collect(ch)
}

// RecordOperation records a completed database operation.
func (m *DatastoreMetrics) RecordOperation(operation, status string, durationSeconds float64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordError records a failed database operation.
func (m *DatastoreMetrics) RecordError(operation string) {
	m.errorsTotal.WithLabelValues(operation).Inc()
}

// UpdateCollectionCounts updates the image and palette count gauges.
func (m *DatastoreMetrics) UpdateCollectionCounts(images, palettes int64) {
	m.imageCount.Set(float64(images))
	m.paletteCount.Set(float64(palettes))
}

// UpdateDatabaseSize updates the database file size gauge.
func (m *DatastoreMetrics) UpdateDatabaseSize(sizeBytes int64) {
	m.databaseSize.Set(float64(sizeBytes))
}
