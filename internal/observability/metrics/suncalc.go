// Package metrics provides suncalc service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SunCalcMetrics contains Prometheus metrics for sun event calculations.
type SunCalcMetrics struct {
	registry *prometheus.Registry

	calculationsTotal *prometheus.CounterVec
	cacheHitsTotal    prometheus.Counter
	cacheMissesTotal  prometheus.Counter

	sunriseTime prometheus.Gauge
	sunsetTime  prometheus.Gauge
}

// NewSunCalcMetrics creates a new SunCalcMetrics instance.
func NewSunCalcMetrics(registry *prometheus.Registry) (*SunCalcMetrics, error) {
	m := &SunCalcMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SunCalcMetrics) initMetrics() error {
	m.calculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suncalc_calculations_total",
			Help: "Total number of sun event calculations",
		},
		[]string{"status"},
	)

	m.cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suncalc_cache_hits_total",
			Help: "Total number of sun event cache hits",
		},
	)

	m.cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suncalc_cache_misses_total",
			Help: "Total number of sun event cache misses",
		},
	)

	m.sunriseTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "suncalc_sunrise_time_seconds",
			Help: "Today's sunrise time as a Unix timestamp",
		},
	)

	m.sunsetTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "suncalc_sunset_time_seconds",
			Help: "Today's sunset time as a Unix timestamp",
		},
	)

	return nil
}

// Describe implements the prometheus.Collector interface.
func (m *SunCalcMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.calculationsTotal.Describe(ch)
	m.cacheHitsTotal.Describe(ch)
	m.cacheMissesTotal.Describe(ch)
	m.sunriseTime.Describe(ch)
	m.sunsetTime.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *SunCalcMetrics) Collect(ch chan<- prometheus.Metric) {
	m.calculationsTotal.Collect(ch)
	m.cacheHitsTotal.Collect(ch)
	m.cacheMissesTotal.Collect(ch)
	m.sunriseTime.Collect(ch)
	m.sunsetTime.Collect(ch)
}

// RecordCalculation records a sun event calculation with its outcome.
func (m *SunCalcMetrics) RecordCalculation(status string) {
	m.calculationsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit records a sun event cache hit.
func (m *SunCalcMetrics) RecordCacheHit() {
	m.cacheHitsTotal.Inc()
}

// RecordCacheMiss records a sun event cache miss.
func (m *SunCalcMetrics) RecordCacheMiss() {
	m.cacheMissesTotal.Inc()
}

// UpdateSunTimes updates the sunrise and sunset gauges.
func (m *SunCalcMetrics) UpdateSunTimes(sunrise, sunset float64) {
	m.sunriseTime.Set(sunrise)
	m.sunsetTime.Set(sunset)
}
