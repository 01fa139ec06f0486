// Package palette implements the palette extraction command.
package palette

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
)

// Command creates the palette command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "palette [image]",
		Short: "Extract color palettes",
		Long: "With an image argument, extracts and prints that image's " +
			"palette. Without arguments, extracts palettes for every indexed " +
			"image that does not have one yet.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if len(args) == 1 {
				return extractOne(ctx, a, args[0], asJSON)
			}
			return extractMissing(ctx, a)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func extractOne(ctx context.Context, a *app.App, imagePath string, asJSON bool) error {
	result, err := a.Extractor.Extract(ctx, imagePath)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Background: %s\n", result.Background)
	fmt.Printf("Foreground: %s\n", result.Foreground)
	fmt.Printf("Swatches:\n")
	for i, hex := range result.Swatches {
		fmt.Printf("  color%-2d %s\n", i, hex)
	}
	fmt.Printf("Avg lightness:  %.2f\n", result.Metrics.AvgLightness)
	fmt.Printf("Avg saturation: %.2f\n", result.Metrics.AvgSaturation)
	fmt.Printf("Avg hue:        %.0f\n", result.Metrics.AvgHue)
	return nil
}

func extractMissing(ctx context.Context, a *app.App) error {
	summary, err := a.Selector.ExtractMissingPalettes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted %d palettes, %d failed, %v canceled\n",
		summary.Extracted, summary.Failed, summary.Canceled)
	return ctx.Err()
}
