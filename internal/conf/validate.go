package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for values the engine cannot
// work with. It normalizes recoverable problems instead of failing.
func ValidateSettings(settings *Settings) error {
	switch settings.Selection.Decay {
	case DecayStep, DecayLinear, DecayExponential:
	case "":
		settings.Selection.Decay = DecayExponential
	default:
		return fmt.Errorf("invalid selection.decay %q, must be one of %s, %s, %s",
			settings.Selection.Decay, DecayStep, DecayLinear, DecayExponential)
	}

	if settings.TimeOfDay.Latitude < -90 || settings.TimeOfDay.Latitude > 90 {
		return fmt.Errorf("invalid timeofday.latitude %v, must be within [-90, 90]", settings.TimeOfDay.Latitude)
	}
	if settings.TimeOfDay.Longitude < -180 || settings.TimeOfDay.Longitude > 180 {
		return fmt.Errorf("invalid timeofday.longitude %v, must be within [-180, 180]", settings.TimeOfDay.Longitude)
	}

	if settings.Library.BatchSize <= 0 {
		settings.Library.BatchSize = 100
	}
	if settings.Extractor.Workers <= 0 {
		settings.Extractor.Workers = 3
	}
	if settings.Selection.StreamingBatchSize <= 0 {
		settings.Selection.StreamingBatchSize = DefaultStreamingBatchSize
	}
	if settings.Selection.MinColorSimilarity < 0 || settings.Selection.MinColorSimilarity > 1 {
		settings.Selection.MinColorSimilarity = DefaultMinColorSimilarity
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		settings.Output.SQLite.Path = GetDefaultDatabasePath()
	}

	return nil
}
