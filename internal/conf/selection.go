// conf/selection.go selection weighting configuration and its flat-map contract.
package conf

import (
	"github.com/go-viper/mapstructure/v2"
)

// Recency decay curves.
const (
	DecayStep        = "step"
	DecayLinear      = "linear"
	DecayExponential = "exponential"
)

// Default values for the selection weighting knobs.
const (
	DefaultCooldownDays       = 7.0
	DefaultSourceCooldownDays = 1.0
	DefaultFavoriteBoost      = 2.0
	DefaultNewImageBoost      = 1.5
	DefaultColorWeight        = 1.0
	DefaultMinColorSimilarity = 0.5
	DefaultTimeTolerance      = 0.5
	DefaultTimeStrength       = 0.3
	DefaultStreamingThreshold = 10000
	DefaultStreamingBatchSize = 500
)

// SelectionConfig holds every weighting knob of the selection engine. It is
// persisted as part of Settings and also round-trips a flat map so any
// key/value store can carry it. Unknown keys are ignored on load and missing
// keys keep their defaults.
type SelectionConfig struct {
	Enabled            bool    `mapstructure:"enabled"`              // false means uniform random selection
	CooldownDays       float64 `mapstructure:"cooldown_days"`        // per-image recency cooldown, <= 0 disables
	Decay              string  `mapstructure:"decay"`                // step, linear or exponential
	SourceCooldownDays float64 `mapstructure:"source_cooldown_days"` // per-source rotation cooldown
	FavoriteBoost      float64 `mapstructure:"favorite_boost"`       // multiplier for favorites
	NewImageBoost      float64 `mapstructure:"new_image_boost"`      // multiplier for never-shown images
	ColorMatching      bool    `mapstructure:"color_matching"`       // enable soft color affinity scoring
	ColorWeight        float64 `mapstructure:"color_weight"`         // strength of the color affinity factor
	MinColorSimilarity float64 `mapstructure:"min_color_similarity"` // default threshold when a target palette is set
	StreamingThreshold int     `mapstructure:"streaming_threshold"`  // collection size above which streaming selection is used
	StreamingBatchSize int     `mapstructure:"streaming_batch_size"` // cursor batch size for streaming selection
}

// DefaultSelectionConfig returns a SelectionConfig with every knob at its
// documented default.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Enabled:            true,
		CooldownDays:       DefaultCooldownDays,
		Decay:              DecayExponential,
		SourceCooldownDays: DefaultSourceCooldownDays,
		FavoriteBoost:      DefaultFavoriteBoost,
		NewImageBoost:      DefaultNewImageBoost,
		ColorMatching:      true,
		ColorWeight:        DefaultColorWeight,
		MinColorSimilarity: DefaultMinColorSimilarity,
		StreamingThreshold: DefaultStreamingThreshold,
		StreamingBatchSize: DefaultStreamingBatchSize,
	}
}

// SelectionConfigFromMap builds a SelectionConfig from a flat map. Missing
// keys keep their defaults and unrecognized keys are ignored.
func SelectionConfigFromMap(values map[string]any) (SelectionConfig, error) {
	cfg := DefaultSelectionConfig()
	if len(values) == 0 {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(values); err != nil {
		return DefaultSelectionConfig(), err
	}
	return cfg, nil
}

// ToMap flattens the config into a plain map keyed by the mapstructure tags.
func (c SelectionConfig) ToMap() (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(c, &out); err != nil {
		return nil, err
	}
	return out, nil
}
