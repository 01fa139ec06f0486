package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ExtractorMetrics contains Prometheus metrics for palette extraction.
type ExtractorMetrics struct {
	extractionsTotal   *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	cacheHitsTotal     prometheus.Counter
}

// NewExtractorMetrics creates and registers extractor metrics.
func NewExtractorMetrics(registry *prometheus.Registry) (*ExtractorMetrics, error) {
	m := &ExtractorMetrics{
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallshift_palette_extractions_total",
				Help: "Total palette extraction attempts",
			},
			[]string{"status"}, // status: success, error, timeout
		),
		extractionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallshift_palette_extraction_duration_seconds",
				Help:    "Time taken for one palette extraction",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallshift_palette_extraction_cache_hits_total",
				Help: "Extraction requests answered from the dedupe cache",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordExtraction records one extraction attempt.
func (m *ExtractorMetrics) RecordExtraction(status string, durationSeconds float64) {
	m.extractionsTotal.WithLabelValues(status).Inc()
	m.extractionDuration.Observe(durationSeconds)
}

// RecordCacheHit records a dedupe cache hit.
func (m *ExtractorMetrics) RecordCacheHit() {
	m.cacheHitsTotal.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *ExtractorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.extractionsTotal.Describe(ch)
	m.extractionDuration.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ExtractorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.extractionsTotal.Collect(ch)
	m.extractionDuration.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
}
