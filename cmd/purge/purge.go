// Package purge implements the index purge command.
package purge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
)

// Command creates the purge command.
func Command(settings *conf.Settings) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the entire image index",
		Long: "Removes every image record, palette and source from the " +
			"database. Files on disk are never touched. Run the index command " +
			"afterwards to rebuild.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to purge the index without --force")
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Store.DeleteAllImages(); err != nil {
				return err
			}
			a.Selector.InvalidateStatistics()
			fmt.Println("Index purged")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the purge")
	return cmd
}
