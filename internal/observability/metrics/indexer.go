package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IndexerMetrics contains Prometheus metrics for indexing operations.
type IndexerMetrics struct {
	indexRunsTotal     *prometheus.CounterVec
	imagesIndexedTotal *prometheus.CounterVec
	indexDuration      prometheus.Histogram
	decodeErrorsTotal  prometheus.Counter
	imagesRemovedTotal prometheus.Counter
}

// NewIndexerMetrics creates and registers indexer metrics.
func NewIndexerMetrics(registry *prometheus.Registry) (*IndexerMetrics, error) {
	m := &IndexerMetrics{
		indexRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallshift_index_runs_total",
				Help: "Total number of index runs",
			},
			[]string{"mode", "status"}, // mode: full, incremental
		),
		imagesIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallshift_images_indexed_total",
				Help: "Images written to the index",
			},
			[]string{"kind"}, // kind: new, changed
		),
		indexDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallshift_index_duration_seconds",
				Help:    "Time taken for index runs",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
		),
		decodeErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallshift_index_decode_errors_total",
				Help: "Images skipped because their header could not be decoded",
			},
		),
		imagesRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallshift_index_images_removed_total",
				Help: "Index entries removed for vanished files",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRun records one completed index run.
func (m *IndexerMetrics) RecordRun(mode, status string, durationSeconds float64) {
	m.indexRunsTotal.WithLabelValues(mode, status).Inc()
	m.indexDuration.Observe(durationSeconds)
}

// RecordIndexed records images written to the index.
func (m *IndexerMetrics) RecordIndexed(kind string, count int) {
	m.imagesIndexedTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordDecodeError records a skipped unreadable image.
func (m *IndexerMetrics) RecordDecodeError() {
	m.decodeErrorsTotal.Inc()
}

// RecordRemoved records index entries deleted for vanished files.
func (m *IndexerMetrics) RecordRemoved(count int) {
	m.imagesRemovedTotal.Add(float64(count))
}

// Describe implements the prometheus.Collector interface.
func (m *IndexerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.indexRunsTotal.Describe(ch)
	m.imagesIndexedTotal.Describe(ch)
	m.indexDuration.Describe(ch)
	m.decodeErrorsTotal.Describe(ch)
	m.imagesRemovedTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *IndexerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.indexRunsTotal.Collect(ch)
	m.imagesIndexedTotal.Collect(ch)
	m.indexDuration.Collect(ch)
	m.decodeErrorsTotal.Collect(ch)
	m.imagesRemovedTotal.Collect(ch)
}
