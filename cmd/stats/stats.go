// Package stats implements the collection statistics command.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
	statspkg "github.com/tkivisto/wallshift/internal/stats"
)

// Command creates the stats command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Long: "Summarizes the indexed collection: totals, show history, " +
			"palette coverage, color distributions and coverage gaps.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			summary, err := a.Selector.Statistics()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func printSummary(s *statspkg.Summary) {
	fmt.Printf("Images:          %d\n", s.TotalImages)
	fmt.Printf("Sources:         %d\n", s.TotalSources)
	fmt.Printf("With palettes:   %d (%.0f%%)\n", s.ImagesWithColor, s.PaletteCoverage()*100)
	fmt.Printf("Shown at least once: %d\n", s.ShownImages)
	fmt.Printf("Total shows:     %d\n", s.TotalShows)
	fmt.Println()

	fmt.Printf("Freshness: never %d, fresh %d, recent %d, stale %d\n",
		s.Freshness.NeverShown, s.Freshness.Fresh, s.Freshness.Recent, s.Freshness.Stale)
	fmt.Println()

	printBuckets("Lightness", s.Lightness)
	printBuckets("Saturation", s.Saturation)
	printBuckets("Hue", s.Hue)

	if len(s.Gaps) > 0 {
		fmt.Println("Coverage gaps:")
		for _, gap := range s.Gaps {
			fmt.Printf("  %s\n", gap)
		}
	}
}

func printBuckets(title string, buckets []statspkg.Bucket) {
	fmt.Printf("%s:\n", title)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, b := range buckets {
		fmt.Fprintf(w, "  %s\t%d\n", b.Label, b.Count)
	}
	_ = w.Flush()
	fmt.Println()
}
