// Package timeofday derives the palette target the selection engine biases
// toward at the current time. Periods come from real sun events when
// coordinates are configured, from a fixed clock schedule otherwise.
package timeofday

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/logging"
	"github.com/tkivisto/wallshift/internal/suncalc"
)

// Period is the coarse time-of-day bucket.
type Period string

const (
	PeriodNight Period = "night"
	PeriodDawn  Period = "dawn"
	PeriodDay   Period = "day"
	PeriodDusk  Period = "dusk"
)

// Target is the palette profile selection should lean toward.
type Target struct {
	Lightness   float64
	Temperature float64
	Saturation  float64
}

// Per-period targets. Lightness dominates the affinity scoring, so these are
// chosen primarily along the dark/bright axis: dim desaturated palettes at
// night, bright ones at midday, warm mid-lightness palettes around the
// golden hours.
var periodTargets = map[Period]Target{
	PeriodNight: {Lightness: 0.20, Temperature: -0.30, Saturation: 0.30},
	PeriodDawn:  {Lightness: 0.45, Temperature: 0.40, Saturation: 0.50},
	PeriodDay:   {Lightness: 0.70, Temperature: 0.10, Saturation: 0.50},
	PeriodDusk:  {Lightness: 0.45, Temperature: 0.50, Saturation: 0.55},
}

// TargetFor returns the palette target for a period.
func TargetFor(period Period) Target {
	if target, ok := periodTargets[period]; ok {
		return target
	}
	return periodTargets[PeriodDay]
}

// ParseClock parses a "HH:MM" string into minutes since midnight. It fails
// fast on bad input; callers that cannot afford a failure must catch it and
// fall back.
func ParseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// schedule holds fixed period boundaries as minutes since midnight.
type schedule struct {
	dawn, day, dusk, night int
}

var defaultSchedule = schedule{dawn: 6 * 60, day: 8 * 60, dusk: 18 * 60, night: 20 * 60}

// Adapter resolves the current period and target. It is read-mostly shared
// state: build one and swap it wholesale when settings change.
type Adapter struct {
	settings conf.TimeOfDaySettings
	sun      *suncalc.SunCalc // nil when coordinates are not configured
	fixed    schedule
	logger   *slog.Logger
}

// New builds an adapter from settings. Bad schedule strings are logged and
// replaced with the default schedule rather than propagated, so selection
// keeps working on misconfiguration.
func New(settings conf.TimeOfDaySettings) *Adapter {
	adapter := &Adapter{
		settings: settings,
		fixed:    defaultSchedule,
		logger:   logging.ForService("timeofday"),
	}

	if settings.Latitude != 0 || settings.Longitude != 0 {
		adapter.sun = suncalc.NewSunCalc(settings.Latitude, settings.Longitude)
	}

	adapter.fixed = parseSchedule(settings.Schedule, adapter.logger)
	return adapter
}

func parseSchedule(cfg conf.TimeOfDaySchedule, logger *slog.Logger) schedule {
	result := defaultSchedule
	entries := []struct {
		value string
		dest  *int
	}{
		{cfg.Dawn, &result.dawn},
		{cfg.Day, &result.day},
		{cfg.Dusk, &result.dusk},
		{cfg.Night, &result.night},
	}
	for _, entry := range entries {
		if entry.value == "" {
			continue
		}
		minutes, err := ParseClock(entry.value)
		if err != nil {
			logger.Warn("invalid time-of-day schedule entry, using default",
				"value", entry.value, "error", err)
			return defaultSchedule
		}
		*entry.dest = minutes
	}
	return result
}

// CurrentPeriod returns the period covering now.
func (a *Adapter) CurrentPeriod(now time.Time) Period {
	if a.sun != nil {
		period, err := a.sunPeriod(now)
		if err == nil {
			return period
		}
		a.logger.Warn("sun event calculation failed, falling back to fixed schedule", "error", err)
	}
	return a.fixedPeriod(now)
}

func (a *Adapter) sunPeriod(now time.Time) (Period, error) {
	events, err := a.sun.GetSunEventTimes(now)
	if err != nil {
		return PeriodDay, err
	}
	switch {
	case now.Before(events.CivilDawn) || !now.Before(events.CivilDusk):
		return PeriodNight, nil
	case now.Before(events.Sunrise):
		return PeriodDawn, nil
	case now.Before(events.Sunset):
		return PeriodDay, nil
	default:
		return PeriodDusk, nil
	}
}

func (a *Adapter) fixedPeriod(now time.Time) Period {
	minutes := now.Hour()*60 + now.Minute()
	switch {
	case minutes >= a.fixed.night || minutes < a.fixed.dawn:
		return PeriodNight
	case minutes < a.fixed.day:
		return PeriodDawn
	case minutes < a.fixed.dusk:
		return PeriodDay
	default:
		return PeriodDusk
	}
}

// CurrentTarget returns the palette target for now. ok is false when time
// adaptation is disabled.
func (a *Adapter) CurrentTarget(now time.Time) (Target, bool) {
	if !a.settings.Enabled {
		return Target{}, false
	}
	return TargetFor(a.CurrentPeriod(now)), true
}

// Tolerance returns the configured palette distance treated as a full
// mismatch.
func (a *Adapter) Tolerance() float64 {
	if a.settings.Tolerance <= 0 {
		return conf.DefaultTimeTolerance
	}
	return a.settings.Tolerance
}

// Strength returns the configured affinity strength.
func (a *Adapter) Strength() float64 {
	if a.settings.Strength <= 0 {
		return conf.DefaultTimeStrength
	}
	return a.settings.Strength
}
