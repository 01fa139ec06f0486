// Package preview implements the selection preview command.
package preview

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/selection"
)

// Command creates the preview command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		count         int
		favoritesOnly bool
		sources       []string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show top-weighted candidates without selecting",
		Long: "Scores every eligible image and prints the highest-weighted " +
			"candidates with a factor breakdown, without recording anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			constraints := &selection.Constraints{
				FavoritesOnly: favoritesOnly,
				Sources:       sources,
			}
			candidates, err := a.Selector.GetPreviewCandidates(count, constraints)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(candidates)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROB\tWEIGHT\tRECENCY\tSOURCE\tCOLOR\tSHOWN\tFAV\tFILE")
			for _, c := range candidates {
				fav := ""
				if c.IsFavorite {
					fav = "*"
				}
				fmt.Fprintf(w, "%.1f%%\t%.3f\t%.2f\t%.2f\t%.2f\t%d\t%s\t%s\n",
					c.NormalizedWeight*100, c.Weight,
					c.Breakdown.Recency, c.Breakdown.Source, c.Breakdown.Color,
					c.TimesShown, fav, c.Filepath)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 15, "Number of candidates to show")
	cmd.Flags().BoolVarP(&favoritesOnly, "favorites", "f", false, "Only consider favorites")
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "Limit to these source ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
