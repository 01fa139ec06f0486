// Package watch implements the filesystem watch command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tkivisto/wallshift/internal/app"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/indexer"
)

// Command creates the watch command.
func Command(settings *conf.Settings) *cobra.Command {
	var delaySeconds int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch library directories and re-index on changes",
		Long: "Runs an initial incremental index of every configured library " +
			"directory, then watches them and re-indexes changed directories " +
			"after a debounce delay. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(settings.Library.Directories) == 0 {
				return fmt.Errorf("no library directories configured")
			}

			a, err := app.New(settings)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, dir := range settings.Library.Directories {
				result, err := a.Indexer.IndexDirectoryIncremental(ctx, dir, settings.Library.Recursive, settings.Library.BatchSize, nil)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d new, %d changed, %d removed\n",
					dir, result.New, result.Changed, result.Removed)
			}

			delay := delaySeconds
			if delay <= 0 {
				delay = settings.Library.WatchDelay
			}
			if delay <= 0 {
				delay = 2
			}

			watcher, err := indexer.NewWatcher(a.Indexer, settings.Library.Directories,
				settings.Library.Recursive, settings.Library.BatchSize,
				time.Duration(delay)*time.Second)
			if err != nil {
				return err
			}
			defer func() { _ = watcher.Close() }()

			watcher.OnIndexed = func(dir string, result *indexer.IncrementalResult) {
				a.Selector.InvalidateStatistics()
				fmt.Printf("%s: %d new, %d changed, %d removed\n",
					dir, result.New, result.Changed, result.Removed)
			}

			fmt.Printf("Watching %d directories\n", len(settings.Library.Directories))
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&delaySeconds, "delay", 0, "Debounce delay in seconds before re-indexing")
	return cmd
}
