// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "wallshift")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/wallshift.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("library.directories", []string{})
	viper.SetDefault("library.recursive", true)
	viper.SetDefault("library.favoritesdir", "")
	viper.SetDefault("library.batchsize", 100)
	viper.SetDefault("library.watch", false)
	viper.SetDefault("library.watchdelay", 5)

	viper.SetDefault("selection.enabled", true)
	viper.SetDefault("selection.cooldown_days", DefaultCooldownDays)
	viper.SetDefault("selection.decay", DecayExponential)
	viper.SetDefault("selection.source_cooldown_days", DefaultSourceCooldownDays)
	viper.SetDefault("selection.favorite_boost", DefaultFavoriteBoost)
	viper.SetDefault("selection.new_image_boost", DefaultNewImageBoost)
	viper.SetDefault("selection.color_matching", true)
	viper.SetDefault("selection.color_weight", DefaultColorWeight)
	viper.SetDefault("selection.min_color_similarity", DefaultMinColorSimilarity)
	viper.SetDefault("selection.streaming_threshold", DefaultStreamingThreshold)
	viper.SetDefault("selection.streaming_batch_size", DefaultStreamingBatchSize)

	viper.SetDefault("timeofday.enabled", false)
	viper.SetDefault("timeofday.latitude", 0.000)
	viper.SetDefault("timeofday.longitude", 0.000)
	viper.SetDefault("timeofday.tolerance", DefaultTimeTolerance)
	viper.SetDefault("timeofday.strength", DefaultTimeStrength)
	viper.SetDefault("timeofday.schedule.dawn", "06:00")
	viper.SetDefault("timeofday.schedule.day", "08:00")
	viper.SetDefault("timeofday.schedule.dusk", "18:00")
	viper.SetDefault("timeofday.schedule.night", "20:00")

	viper.SetDefault("extractor.binary", "wallust")
	viper.SetDefault("extractor.args", []string{"run"})
	viper.SetDefault("extractor.cachedir", "")
	viper.SetDefault("extractor.workers", 3)
	viper.SetDefault("extractor.timeout", 30)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "wallshift.db")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "127.0.0.1:9190")
}
