// Package pick implements the selection command.
package pick

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/selection"
)

// Command creates the pick command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		count          int
		minWidth       int
		minHeight      int
		minAspectRatio float64
		maxAspectRatio float64
		favoritesOnly  bool
		sources        []string
		recordShown    bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick wallpapers by weighted random selection",
		Long: "Selects images from the index with weighting by recency, source " +
			"rotation, favorites, novelty and color affinity, printing one " +
			"filepath per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			constraints := &selection.Constraints{
				MinWidth:       minWidth,
				MinHeight:      minHeight,
				MinAspectRatio: minAspectRatio,
				MaxAspectRatio: maxAspectRatio,
				FavoritesOnly:  favoritesOnly,
				Sources:        sources,
			}

			ctx := context.Background()
			paths, err := a.Selector.SelectImages(ctx, count, constraints)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
				if recordShown {
					if err := a.Selector.RecordShown(ctx, path); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of images to pick")
	cmd.Flags().IntVar(&minWidth, "min-width", 0, "Minimum image width in pixels")
	cmd.Flags().IntVar(&minHeight, "min-height", 0, "Minimum image height in pixels")
	cmd.Flags().Float64Var(&minAspectRatio, "min-aspect", 0, "Minimum aspect ratio")
	cmd.Flags().Float64Var(&maxAspectRatio, "max-aspect", 0, "Maximum aspect ratio")
	cmd.Flags().BoolVarP(&favoritesOnly, "favorites", "f", false, "Only pick favorites")
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "Limit to these source ids")
	cmd.Flags().BoolVar(&recordShown, "record", false, "Record picked images as shown")
	return cmd
}
