package selection

import (
	"sync/atomic"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

var selectionMetrics atomic.Pointer[metrics.SelectionMetrics]

// SetMetrics wires the package to a metrics collector. Optional; without it
// all recording calls are no-ops.
func SetMetrics(m *metrics.SelectionMetrics) {
	selectionMetrics.Store(m)
}

func getMetrics() *metrics.SelectionMetrics {
	return selectionMetrics.Load()
}
