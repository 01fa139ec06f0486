package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tkivisto/wallshift/cmd"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init()
	if settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		logger, closeFn, err := logging.NewFileLogger(settings.Main.Log.Path, "wallshift", level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		} else {
			slog.SetDefault(logger)
			defer func() { _ = closeFn() }()
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
