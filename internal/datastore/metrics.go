package datastore

import (
	"sync/atomic"
	"time"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

var datastoreMetrics atomic.Pointer[metrics.DatastoreMetrics]

// SetMetrics wires Prometheus metrics into the datastore package. Safe to
// call at any time; a nil value disables recording.
func SetMetrics(m *metrics.DatastoreMetrics) {
	datastoreMetrics.Store(m)
}

func getMetrics() *metrics.DatastoreMetrics {
	return datastoreMetrics.Load()
}

// observeOp records duration and outcome for one database operation.
// Callers defer it with the operation start time and a pointer to their
// named error return.
func observeOp(operation string, start time.Time, errp *error) {
	m := getMetrics()
	if m == nil {
		return
	}
	status := "success"
	if errp != nil && *errp != nil {
		status = "error"
	}
	m.RecordOperation(operation, status, time.Since(start).Seconds())
}
