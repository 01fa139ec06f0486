// Package index implements the directory indexing command.
package index

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
)

// Command creates the index command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		extractPalettes bool
		showProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "index [directory...]",
		Short: "Index wallpaper directories into the database",
		Long: "Scans the given directories (or the configured library when none " +
			"are given), indexing new and changed images and removing entries " +
			"for files that no longer exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = settings.Library.Directories
			}
			if len(dirs) == 0 {
				return fmt.Errorf("no directories given and none configured")
			}
			return runIndex(settings, dirs, extractPalettes, showProgress)
		},
	}

	cmd.Flags().BoolVarP(&settings.Library.Recursive, "recursive", "r", settings.Library.Recursive, "Recurse into subdirectories")
	cmd.Flags().IntVar(&settings.Library.BatchSize, "batch-size", settings.Library.BatchSize, "Records per database write batch")
	cmd.Flags().BoolVar(&extractPalettes, "palettes", false, "Extract palettes for newly indexed images")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "Print per-file progress")
	return cmd
}

func runIndex(settings *conf.Settings, dirs []string, extractPalettes, showProgress bool) error {
	a, err := app.New(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress func(processed, total int, message string)
	if showProgress {
		progress = func(processed, total int, message string) {
			fmt.Printf("\r[%d/%d] %-50.50s", processed, total, message)
		}
	}

	totalIndexed := 0
	for _, dir := range dirs {
		result, err := a.Indexer.IndexDirectoryIncremental(ctx, dir,
			settings.Library.Recursive, settings.Library.BatchSize, progress)
		if showProgress {
			fmt.Println()
		}
		if err != nil {
			return err
		}
		totalIndexed += result.Indexed()
		fmt.Printf("%s: %d new, %d changed, %d unchanged, %d removed, %d failed\n",
			dir, result.New, result.Changed, result.Unchanged, result.Removed, result.Failed)
	}
	a.Selector.InvalidateStatistics()

	if extractPalettes && totalIndexed > 0 {
		fmt.Println("extracting palettes...")
		summary, err := a.Selector.ExtractMissingPalettes(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("palettes: %d extracted, %d failed\n", summary.Extracted, summary.Failed)
	}
	return nil
}
