package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectionConfig(t *testing.T) {
	cfg := DefaultSelectionConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, DecayExponential, cfg.Decay)
	assert.InDelta(t, DefaultCooldownDays, cfg.CooldownDays, 1e-9)
	assert.InDelta(t, DefaultFavoriteBoost, cfg.FavoriteBoost, 1e-9)
}

func TestSelectionConfigFromMap(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		check  func(t *testing.T, cfg SelectionConfig)
	}{
		{
			name:   "nil map yields defaults",
			values: nil,
			check: func(t *testing.T, cfg SelectionConfig) {
				t.Helper()
				assert.Equal(t, DefaultSelectionConfig(), cfg)
			},
		},
		{
			name: "partial map keeps defaults for missing keys",
			values: map[string]any{
				"cooldown_days":  3.5,
				"favorite_boost": 4.0,
			},
			check: func(t *testing.T, cfg SelectionConfig) {
				t.Helper()
				assert.InDelta(t, 3.5, cfg.CooldownDays, 1e-9)
				assert.InDelta(t, 4.0, cfg.FavoriteBoost, 1e-9)
				assert.Equal(t, DecayExponential, cfg.Decay)
				assert.InDelta(t, DefaultNewImageBoost, cfg.NewImageBoost, 1e-9)
			},
		},
		{
			name: "unknown keys are ignored",
			values: map[string]any{
				"no_such_option": 42,
				"decay":          "linear",
			},
			check: func(t *testing.T, cfg SelectionConfig) {
				t.Helper()
				assert.Equal(t, DecayLinear, cfg.Decay)
			},
		},
		{
			name: "weakly typed values are converted",
			values: map[string]any{
				"enabled":       "false",
				"cooldown_days": "2",
			},
			check: func(t *testing.T, cfg SelectionConfig) {
				t.Helper()
				assert.False(t, cfg.Enabled)
				assert.InDelta(t, 2.0, cfg.CooldownDays, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := SelectionConfigFromMap(tt.values)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSelectionConfigRoundTrip(t *testing.T) {
	original := DefaultSelectionConfig()
	original.CooldownDays = 14
	original.Decay = DecayStep
	original.Enabled = false

	m, err := original.ToMap()
	require.NoError(t, err)
	assert.Contains(t, m, "cooldown_days")

	restored, err := SelectionConfigFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestValidateSettings(t *testing.T) {
	settings := &Settings{}
	settings.Selection = DefaultSelectionConfig()
	settings.Selection.Decay = ""
	settings.Library.BatchSize = 0
	settings.TimeOfDay.Latitude = 60.17

	require.NoError(t, ValidateSettings(settings))
	assert.Equal(t, DecayExponential, settings.Selection.Decay)
	assert.Equal(t, 100, settings.Library.BatchSize)

	settings.Selection.Decay = "parabolic"
	assert.Error(t, ValidateSettings(settings))

	settings.Selection.Decay = DecayLinear
	settings.TimeOfDay.Latitude = 120
	assert.Error(t, ValidateSettings(settings))
}
