// Package datastore logging setup, following the per-service file logger
// convention used across the project.
package datastore

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/tkivisto/wallshift/internal/logging"
)

var (
	serviceLogger   *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
	loggerOnce      sync.Once
)

// getLogger returns the datastore service logger, initializing it on first use.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		logFilePath := filepath.Join("logs", "datastore.log")
		serviceLevelVar.Set(slog.LevelInfo)

		var err error
		serviceLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "datastore", serviceLevelVar)
		if err != nil {
			log.Printf("Failed to initialize datastore file logger at %s: %v. Service logging disabled.", logFilePath, err)
			fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
			serviceLogger = slog.New(fbHandler).With("service", "datastore")
			closeLogger = func() error { return nil }
		}
	})
	return serviceLogger
}

// SetLogLevel adjusts the datastore log level at runtime.
func SetLogLevel(level slog.Level) {
	serviceLevelVar.Set(level)
}

// CloseLogger flushes and closes the datastore log writer. Safe to call more
// than once.
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
