package suncalc

import (
	"sync/atomic"

	"github.com/tkivisto/wallshift/internal/observability/metrics"
)

var sunCalcMetrics atomic.Pointer[metrics.SunCalcMetrics]

// SetMetrics wires Prometheus metrics into the suncalc package. Safe to call
// at any time; a nil value disables recording.
func SetMetrics(m *metrics.SunCalcMetrics) {
	sunCalcMetrics.Store(m)
}

func getMetrics() *metrics.SunCalcMetrics {
	return sunCalcMetrics.Load()
}
