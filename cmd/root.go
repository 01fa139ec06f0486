package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tkivisto/wallshift/cmd/history"
	"github.com/tkivisto/wallshift/cmd/index"
	"github.com/tkivisto/wallshift/cmd/palette"
	"github.com/tkivisto/wallshift/cmd/pick"
	"github.com/tkivisto/wallshift/cmd/preview"
	"github.com/tkivisto/wallshift/cmd/purge"
	"github.com/tkivisto/wallshift/cmd/stats"
	"github.com/tkivisto/wallshift/cmd/watch"
	"github.com/tkivisto/wallshift/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wallshift",
		Short: "Weighted wallpaper selection engine",
		Long: "Wallshift indexes wallpaper directories and picks images with " +
			"recency-, favorite- and color-aware weighted sampling.",
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		index.Command(settings),
		pick.Command(settings),
		preview.Command(settings),
		stats.Command(settings),
		palette.Command(settings),
		history.Command(settings),
		purge.Command(settings),
		watch.Command(settings),
	)
	return rootCmd
}

// setupFlags defines flags global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "database", viper.GetString("output.sqlite.path"), "Path to the index database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
