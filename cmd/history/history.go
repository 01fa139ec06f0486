// Package history implements the show-history maintenance command.
package history

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
)

// Command creates the history command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage show history",
	}
	cmd.AddCommand(clearCommand(settings))
	return cmd
}

func clearCommand(settings *conf.Settings) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset show counts and timestamps for all images",
		Long: "Clears times_shown and last_shown_at on every image and its " +
			"sources. Indexed metadata and palettes are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear history without --force")
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Store.ClearHistory(); err != nil {
				return err
			}
			a.Selector.InvalidateStatistics()
			fmt.Println("Show history cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the reset")
	return cmd
}
