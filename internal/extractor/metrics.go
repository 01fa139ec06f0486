package extractor

import (
	"sync/atomic"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

var extractorMetrics atomic.Pointer[metrics.ExtractorMetrics]

// SetMetrics wires the package to a metrics collector. Optional; without it
// all recording calls are no-ops.
func SetMetrics(m *metrics.ExtractorMetrics) {
	extractorMetrics.Store(m)
}

func getMetrics() *metrics.ExtractorMetrics {
	return extractorMetrics.Load()
}
