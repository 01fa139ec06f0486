// Package metrics provides Prometheus collectors for wallshift services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SelectionMetrics contains Prometheus metrics for selection operations.
type SelectionMetrics struct {
	selectionsTotal       *prometheus.CounterVec
	selectionDuration     *prometheus.HistogramVec
	candidatesConsidered  prometheus.Histogram
	uniformFallbacksTotal prometheus.Counter
	phantomDropsTotal     prometheus.Counter
}

// NewSelectionMetrics creates and registers selection metrics.
func NewSelectionMetrics(registry *prometheus.Registry) (*SelectionMetrics, error) {
	m := &SelectionMetrics{
		selectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallshift_selections_total",
				Help: "Total number of selection operations",
			},
			[]string{"mode", "status"}, // mode: weighted, uniform, streaming
		),
		selectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallshift_selection_duration_seconds",
				Help:    "Time taken for selection operations",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"mode"},
		),
		candidatesConsidered: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallshift_selection_candidates",
				Help:    "Number of candidates considered per selection",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		uniformFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallshift_selection_uniform_fallbacks_total",
				Help: "Selections that fell back to uniform sampling",
			},
		),
		phantomDropsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wallshift_selection_phantom_drops_total",
				Help: "Candidates dropped because the backing file vanished",
			},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSelection records one completed selection.
func (m *SelectionMetrics) RecordSelection(mode, status string, durationSeconds float64, candidates int) {
	m.selectionsTotal.WithLabelValues(mode, status).Inc()
	m.selectionDuration.WithLabelValues(mode).Observe(durationSeconds)
	m.candidatesConsidered.Observe(float64(candidates))
}

// RecordUniformFallback records a weighted selection degrading to uniform.
func (m *SelectionMetrics) RecordUniformFallback() {
	m.uniformFallbacksTotal.Inc()
}

// RecordPhantomDrops records candidates dropped by existence validation.
func (m *SelectionMetrics) RecordPhantomDrops(count int) {
	m.phantomDropsTotal.Add(float64(count))
}

// Describe implements the prometheus.Collector interface.
func (m *SelectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.selectionsTotal.Describe(ch)
	m.selectionDuration.Describe(ch)
	m.candidatesConsidered.Describe(ch)
	m.uniformFallbacksTotal.Describe(ch)
	m.phantomDropsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *SelectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.selectionsTotal.Collect(ch)
	m.selectionDuration.Collect(ch)
	m.candidatesConsidered.Collect(ch)
	m.uniformFallbacksTotal.Collect(ch)
	m.phantomDropsTotal.Collect(ch)
}
