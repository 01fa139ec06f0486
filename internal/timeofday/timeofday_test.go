package timeofday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivisto/wallshift/internal/conf"
)

func fixedSettings(enabled bool) conf.TimeOfDaySettings {
	return conf.TimeOfDaySettings{
		Enabled: enabled,
		Schedule: conf.TimeOfDaySchedule{
			Dawn: "06:00", Day: "08:00", Dusk: "18:00", Night: "20:00",
		},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.Local)
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("06:30")
	require.NoError(t, err)
	assert.Equal(t, 390, minutes)

	for _, bad := range []string{"", "25:00", "6 am", "noonish"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestFixedSchedulePeriods(t *testing.T) {
	adapter := New(fixedSettings(true))

	tests := []struct {
		now    time.Time
		period Period
	}{
		{at(3, 0), PeriodNight},
		{at(6, 0), PeriodDawn},
		{at(7, 59), PeriodDawn},
		{at(12, 0), PeriodDay},
		{at(18, 30), PeriodDusk},
		{at(20, 0), PeriodNight},
		{at(23, 59), PeriodNight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.period, adapter.CurrentPeriod(tt.now), "at %s", tt.now.Format("15:04"))
	}
}

func TestBadScheduleFallsBackToDefaults(t *testing.T) {
	settings := fixedSettings(true)
	settings.Schedule.Dusk = "late afternoon"

	adapter := New(settings)
	// Default schedule still applies; construction must not fail.
	assert.Equal(t, PeriodDay, adapter.CurrentPeriod(at(12, 0)))
	assert.Equal(t, PeriodNight, adapter.CurrentPeriod(at(2, 0)))
}

func TestCurrentTargetDisabled(t *testing.T) {
	adapter := New(fixedSettings(false))
	_, ok := adapter.CurrentTarget(at(12, 0))
	assert.False(t, ok)
}

func TestCurrentTargetPerPeriod(t *testing.T) {
	adapter := New(fixedSettings(true))

	day, ok := adapter.CurrentTarget(at(12, 0))
	require.True(t, ok)
	night, ok := adapter.CurrentTarget(at(2, 0))
	require.True(t, ok)

	assert.Greater(t, day.Lightness, night.Lightness, "daytime target is brighter than night")
}

func TestSunBasedPeriods(t *testing.T) {
	settings := fixedSettings(true)
	settings.Latitude = 60.1699
	settings.Longitude = 24.9384

	adapter := New(settings)
	// Midday in Helsinki in March is unambiguous daylight.
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	assert.Equal(t, PeriodDay, adapter.CurrentPeriod(noon))

	midnight := time.Date(2025, 3, 10, 0, 30, 0, 0, time.Local)
	assert.Equal(t, PeriodNight, adapter.CurrentPeriod(midnight))
}

func TestToleranceAndStrengthDefaults(t *testing.T) {
	adapter := New(conf.TimeOfDaySettings{Enabled: true})
	assert.InDelta(t, conf.DefaultTimeTolerance, adapter.Tolerance(), 1e-9)
	assert.InDelta(t, conf.DefaultTimeStrength, adapter.Strength(), 1e-9)

	custom := conf.TimeOfDaySettings{Enabled: true, Tolerance: 0.8, Strength: 0.6}
	adapter = New(custom)
	assert.InDelta(t, 0.8, adapter.Tolerance(), 1e-9)
	assert.InDelta(t, 0.6, adapter.Strength(), 1e-9)
}
