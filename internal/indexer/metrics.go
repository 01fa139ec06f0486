package indexer

import (
	"sync/atomic"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

var indexerMetrics atomic.Pointer[metrics.IndexerMetrics]

// SetMetrics wires the package to a metrics collector. Optional; without it
// all recording calls are no-ops.
func SetMetrics(m *metrics.IndexerMetrics) {
	indexerMetrics.Store(m)
}

func getMetrics() *metrics.IndexerMetrics {
	return indexerMetrics.Load()
}
