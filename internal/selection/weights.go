// weights.go: the pure weight model. Every factor is a side-effect-free
// function returning a finite float; composition is strictly multiplicative
// with an epsilon floor so no image is ever permanently unselectable.
package selection

import (
	"math"
	"time"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/timeofday"
)

// MinWeight is the floor applied to the combined weight. Never zero, so the
// weighting alone cannot make an image unselectable.
const MinWeight = 1e-6

// missingPaletteFactor is the mild soft-scoring penalty for images without
// palette data. Hard filtering on an explicit constraint excludes them
// entirely; this only applies to soft affinity scoring.
const missingPaletteFactor = 0.8

// Color affinity multiplier range, pivoting at similarity 0.5 -> 1.0.
const (
	colorAffinityMin = 0.1
	colorAffinityMax = 2.0
)

// Time affinity dimension weights. Lightness dominates because the day/night
// distinction is primarily brightness-driven.
const (
	timeLightnessWeight   = 0.7
	timeTemperatureWeight = 0.2
	timeSaturationWeight  = 0.1
)

// RecencyFactor suppresses an image shortly after it was shown, recovering to
// 1.0 as the cooldown elapses. Never-shown images and disabled cooldowns are
// neutral. Negative elapsed time from clock skew is treated as "just shown".
func RecencyFactor(lastShownAt *time.Time, now time.Time, cooldownDays float64, decay string) float64 {
	if lastShownAt == nil || cooldownDays <= 0 {
		return 1.0
	}

	elapsed := now.Sub(*lastShownAt)
	if elapsed < 0 {
		elapsed = 0
	}
	cooldown := time.Duration(cooldownDays * 24 * float64(time.Hour))
	if elapsed >= cooldown {
		return 1.0
	}

	progress := float64(elapsed) / float64(cooldown)
	switch decay {
	case conf.DecayStep:
		return 0.0
	case conf.DecayLinear:
		return progress
	default:
		// Logistic S-curve centered mid-cooldown: slow initial recovery,
		// accelerating through the middle, saturating near cooldown end.
		return 1.0 / (1.0 + math.Exp(-12*(progress-0.5)))
	}
}

// SourceFactor is the recency mechanism applied at source granularity,
// rotating selection across directories independent of per-image recency.
func SourceFactor(sourceLastShownAt *time.Time, now time.Time, cooldownDays float64, decay string) float64 {
	return RecencyFactor(sourceLastShownAt, now, cooldownDays, decay)
}

// FavoriteBoost returns the configured boost for favorites, 1.0 otherwise.
func FavoriteBoost(isFavorite bool, boost float64) float64 {
	if isFavorite && boost > 0 {
		return boost
	}
	return 1.0
}

// NewImageBoost returns the configured boost for never-shown images.
func NewImageBoost(timesShown int, boost float64) float64 {
	if timesShown == 0 && boost > 0 {
		return boost
	}
	return 1.0
}

// ColorAffinityFactor maps palette similarity onto a multiplier. Neutral when
// no target is set, a mild penalty when the image palette is unknown, and a
// two-piece linear mapping of similarity onto [0.1, 2.0] otherwise, pivoting
// at similarity 0.5 -> 1.0. weight scales the factor's pull toward or away
// from neutral; 0 disables it entirely.
func ColorAffinityFactor(imagePalette, targetPalette *colors.Palette, weight float64) float64 {
	if targetPalette == nil || weight <= 0 {
		return 1.0
	}
	if imagePalette == nil {
		return missingPaletteFactor
	}

	similarity := colors.Similarity(*imagePalette, *targetPalette)

	var multiplier float64
	if similarity >= 0.5 {
		multiplier = 1.0 + (similarity-0.5)/0.5*(colorAffinityMax-1.0)
	} else {
		multiplier = colorAffinityMin + similarity/0.5*(1.0-colorAffinityMin)
	}

	// Scale the deviation from neutral by the configured weight.
	return 1.0 + (multiplier-1.0)*weight
}

// TimeAffinity rewards images whose palette matches the time-of-day target.
// Neutral when the palette is unknown or no target is set. The weighted L1
// distance over lightness, temperature and saturation maps linearly from
// [0, tolerance] onto [1+strength, 1/(1+strength)].
func TimeAffinity(imagePalette *colors.Palette, target *timeofday.Target, tolerance, strength float64) float64 {
	if imagePalette == nil || target == nil {
		return 1.0
	}
	if tolerance <= 0 || strength <= 0 {
		return 1.0
	}

	distance := timeLightnessWeight*math.Abs(imagePalette.AvgLightness-target.Lightness) +
		timeTemperatureWeight*math.Abs(imagePalette.ColorTemperature-target.Temperature)/2 +
		timeSaturationWeight*math.Abs(imagePalette.AvgSaturation-target.Saturation)

	maxMult := 1.0 + strength
	minMult := 1.0 / (1.0 + strength)
	if distance >= tolerance {
		return minMult
	}
	return maxMult - (maxMult-minMult)*(distance/tolerance)
}

// WeightBreakdown records each factor of a computed weight, for the preview
// and debugging surfaces.
type WeightBreakdown struct {
	Recency  float64 `json:"recency"`
	Source   float64 `json:"source"`
	Favorite float64 `json:"favorite"`
	NewImage float64 `json:"new_image"`
	Color    float64 `json:"color"`
	Time     float64 `json:"time"`
}

// WeightInputs gathers everything CalculateWeight needs about one candidate.
type WeightInputs struct {
	Image             *datastore.ImageRecord
	SourceLastShownAt *time.Time
	Palette           *colors.Palette  // nil when unknown
	TargetPalette     *colors.Palette  // nil when no target set
	ColorWeight       float64          // resolved weight, continuity override included
	TimeTarget        *timeofday.Target // nil when time adaptation is off
	TimeTolerance     float64
	TimeStrength      float64
	Now               time.Time
}

// CalculateWeight composes all factors multiplicatively. A disabled config
// returns 1.0 unconditionally (uniform random fallback); otherwise the
// product of every factor, floored at MinWeight.
func CalculateWeight(cfg *conf.SelectionConfig, in *WeightInputs) (float64, WeightBreakdown) {
	breakdown := WeightBreakdown{Recency: 1, Source: 1, Favorite: 1, NewImage: 1, Color: 1, Time: 1}
	if !cfg.Enabled {
		return 1.0, breakdown
	}

	breakdown.Recency = RecencyFactor(in.Image.LastShownAt, in.Now, cfg.CooldownDays, cfg.Decay)
	breakdown.Source = SourceFactor(in.SourceLastShownAt, in.Now, cfg.SourceCooldownDays, cfg.Decay)
	breakdown.Favorite = FavoriteBoost(in.Image.IsFavorite, cfg.FavoriteBoost)
	breakdown.NewImage = NewImageBoost(in.Image.TimesShown, cfg.NewImageBoost)
	if cfg.ColorMatching {
		breakdown.Color = ColorAffinityFactor(in.Palette, in.TargetPalette, in.ColorWeight)
	}
	breakdown.Time = TimeAffinity(in.Palette, in.TimeTarget, in.TimeTolerance, in.TimeStrength)

	weight := breakdown.Recency * breakdown.Source * breakdown.Favorite *
		breakdown.NewImage * breakdown.Color * breakdown.Time
	if weight < MinWeight || math.IsNaN(weight) {
		weight = MinWeight
	}
	return weight, breakdown
}
