package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/timeofday"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestRecencyFactorNeverShown(t *testing.T) {
	now := time.Now()
	assert.InDelta(t, 1.0, RecencyFactor(nil, now, 7, conf.DecayExponential), 1e-9)
}

func TestRecencyFactorDisabledCooldown(t *testing.T) {
	now := time.Now()
	shown := now.Add(-time.Hour)
	assert.InDelta(t, 1.0, RecencyFactor(&shown, now, 0, conf.DecayExponential), 1e-9)
}

func TestRecencyFactorStep(t *testing.T) {
	now := time.Now()

	inside := now.Add(-24 * time.Hour)
	assert.Zero(t, RecencyFactor(&inside, now, 7, conf.DecayStep))

	outside := now.Add(-8 * 24 * time.Hour)
	assert.InDelta(t, 1.0, RecencyFactor(&outside, now, 7, conf.DecayStep), 1e-9)
}

func TestRecencyFactorLinear(t *testing.T) {
	now := time.Now()
	halfway := now.Add(-3*24*time.Hour - 12*time.Hour)
	assert.InDelta(t, 0.5, RecencyFactor(&halfway, now, 7, conf.DecayLinear), 1e-6)
}

func TestRecencyFactorLogisticMonotonic(t *testing.T) {
	now := time.Now()
	previous := -1.0
	for hours := 1; hours < 7*24; hours += 6 {
		shown := now.Add(-time.Duration(hours) * time.Hour)
		factor := RecencyFactor(&shown, now, 7, conf.DecayExponential)
		assert.GreaterOrEqual(t, factor, previous, "recovery must not regress at hour %d", hours)
		assert.Less(t, factor, 1.0)
		previous = factor
	}
}

func TestRecencyFactorLogisticMidpoint(t *testing.T) {
	now := time.Now()
	halfway := now.Add(-3*24*time.Hour - 12*time.Hour)
	assert.InDelta(t, 0.5, RecencyFactor(&halfway, now, 7, conf.DecayExponential), 1e-6)
}

func TestRecencyFactorClockSkew(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	factor := RecencyFactor(&future, now, 7, conf.DecayExponential)
	justShown := RecencyFactor(&now, now, 7, conf.DecayExponential)
	assert.InDelta(t, justShown, factor, 1e-9)
}

func TestFavoriteAndNewImageBoosts(t *testing.T) {
	assert.InDelta(t, 2.0, FavoriteBoost(true, 2.0), 1e-9)
	assert.InDelta(t, 1.0, FavoriteBoost(false, 2.0), 1e-9)
	assert.InDelta(t, 1.0, FavoriteBoost(true, 0), 1e-9)

	assert.InDelta(t, 1.5, NewImageBoost(0, 1.5), 1e-9)
	assert.InDelta(t, 1.0, NewImageBoost(3, 1.5), 1e-9)
}

func TestColorAffinityFactorNoTarget(t *testing.T) {
	palette := &colors.Palette{Metrics: colors.Metrics{AvgHue: 200}}
	assert.InDelta(t, 1.0, ColorAffinityFactor(palette, nil, 1.0), 1e-9)
}

func TestColorAffinityFactorMissingPalette(t *testing.T) {
	target := &colors.Palette{Metrics: colors.Metrics{AvgHue: 200}}
	assert.InDelta(t, missingPaletteFactor, ColorAffinityFactor(nil, target, 1.0), 1e-9)
}

func TestColorAffinityFactorIdentical(t *testing.T) {
	palette := colors.Palette{Metrics: colors.Metrics{
		AvgHue: 210, AvgSaturation: 0.5, AvgLightness: 0.5, ColorTemperature: -0.2,
	}}
	factor := ColorAffinityFactor(&palette, &palette, 1.0)
	assert.InDelta(t, colorAffinityMax, factor, 1e-6)
}

func TestColorAffinityFactorWeightScalesDeviation(t *testing.T) {
	palette := colors.Palette{Metrics: colors.Metrics{
		AvgHue: 210, AvgSaturation: 0.5, AvgLightness: 0.5, ColorTemperature: -0.2,
	}}
	full := ColorAffinityFactor(&palette, &palette, 1.0)
	half := ColorAffinityFactor(&palette, &palette, 0.5)
	assert.InDelta(t, 1.0+(full-1.0)*0.5, half, 1e-9)

	assert.InDelta(t, 1.0, ColorAffinityFactor(&palette, &palette, 0), 1e-9)
}

func TestTimeAffinityPerfectMatch(t *testing.T) {
	palette := &colors.Palette{Metrics: colors.Metrics{
		AvgLightness: 0.70, ColorTemperature: 0.10, AvgSaturation: 0.50,
	}}
	target := &timeofday.Target{Lightness: 0.70, Temperature: 0.10, Saturation: 0.50}
	assert.InDelta(t, 1.3, TimeAffinity(palette, target, 0.5, 0.3), 1e-6)
}

func TestTimeAffinityFarMismatch(t *testing.T) {
	palette := &colors.Palette{Metrics: colors.Metrics{
		AvgLightness: 0.95, ColorTemperature: 1.0, AvgSaturation: 0.9,
	}}
	target := &timeofday.Target{Lightness: 0.20, Temperature: -0.30, Saturation: 0.30}
	assert.InDelta(t, 1.0/1.3, TimeAffinity(palette, target, 0.5, 0.3), 1e-6)
}

func TestTimeAffinityNeutralCases(t *testing.T) {
	palette := &colors.Palette{}
	target := &timeofday.Target{Lightness: 0.5}

	assert.InDelta(t, 1.0, TimeAffinity(nil, target, 0.5, 0.3), 1e-9)
	assert.InDelta(t, 1.0, TimeAffinity(palette, nil, 0.5, 0.3), 1e-9)
	assert.InDelta(t, 1.0, TimeAffinity(palette, target, 0, 0.3), 1e-9)
	assert.InDelta(t, 1.0, TimeAffinity(palette, target, 0.5, 0), 1e-9)
}

func TestCalculateWeightDisabled(t *testing.T) {
	cfg := conf.DefaultSelectionConfig()
	cfg.Enabled = false

	shown := time.Now().Add(-time.Hour)
	image := datastore.ImageRecord{LastShownAt: &shown, IsFavorite: true}
	weight, breakdown := CalculateWeight(&cfg, &WeightInputs{Image: &image, Now: time.Now()})
	assert.InDelta(t, 1.0, weight, 1e-9)
	assert.InDelta(t, 1.0, breakdown.Recency, 1e-9)
	assert.InDelta(t, 1.0, breakdown.Favorite, 1e-9)
}

func TestCalculateWeightComposition(t *testing.T) {
	cfg := conf.DefaultSelectionConfig()
	cfg.Decay = conf.DecayStep

	now := time.Now()
	image := datastore.ImageRecord{IsFavorite: true, TimesShown: 0}
	weight, breakdown := CalculateWeight(&cfg, &WeightInputs{Image: &image, Now: now})
	assert.InDelta(t, cfg.FavoriteBoost*cfg.NewImageBoost, weight, 1e-9)
	assert.InDelta(t, cfg.FavoriteBoost, breakdown.Favorite, 1e-9)
	assert.InDelta(t, cfg.NewImageBoost, breakdown.NewImage, 1e-9)
}

func TestCalculateWeightFloor(t *testing.T) {
	cfg := conf.DefaultSelectionConfig()
	cfg.Decay = conf.DecayStep

	now := time.Now()
	image := datastore.ImageRecord{LastShownAt: timePtr(now.Add(-time.Hour)), TimesShown: 5}
	weight, breakdown := CalculateWeight(&cfg, &WeightInputs{Image: &image, Now: now})
	assert.Zero(t, breakdown.Recency)
	assert.InDelta(t, MinWeight, weight, 1e-12)
}

func TestPickByCumulativeWeight(t *testing.T) {
	weights := []float64{1, 2, 3}

	assert.Equal(t, 0, PickByCumulativeWeight(weights, 0.5))
	assert.Equal(t, 1, PickByCumulativeWeight(weights, 1.5))
	assert.Equal(t, 2, PickByCumulativeWeight(weights, 5.0))

	// A draw at or past the total still lands on the last item.
	assert.Equal(t, 2, PickByCumulativeWeight(weights, 6.0))
	assert.Equal(t, 2, PickByCumulativeWeight(weights, 6.0000001))

	// Zero-weight entries are never picked.
	assert.Equal(t, 2, PickByCumulativeWeight([]float64{0, 0, 1, 0}, 0.5))
	assert.Equal(t, -1, PickByCumulativeWeight([]float64{0, 0}, 0.5))
}
