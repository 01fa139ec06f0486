package datastore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/errors"
)

// SQLiteStore implements Interface for a single-file SQLite profile database.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection. The database is opened in WAL
// mode so readers are not blocked during writes and the file survives abrupt
// process termination.
func (store *SQLiteStore) Open() error {
	dbPath := store.Settings.Output.SQLite.Path
	if dbPath == "" {
		return errors.Newf("sqlite path is not configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(fmt.Errorf("creating database directory: %w", err)).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("db_path", dbPath).
				Build()
		}
	}

	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_path", dbPath).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, dbPath)
}

// RefreshMetrics updates the collection gauges from the current row counts
// and database file size. Best effort; failures are ignored.
func (store *SQLiteStore) RefreshMetrics() {
	m := getMetrics()
	if m == nil || store.DB == nil {
		return
	}
	images, err := store.CountImages()
	if err != nil {
		return
	}
	palettes, err := store.CountImagesWithPalettes()
	if err != nil {
		return
	}
	m.UpdateCollectionCounts(images, palettes)
	if info, err := os.Stat(store.Settings.Output.SQLite.Path); err == nil {
		m.UpdateDatabaseSize(info.Size())
	}
}

// Close finalizes the underlying connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// performAutoMigration creates any missing tables and indexes.
func performAutoMigration(db *gorm.DB, debug bool, connectionInfo string) error {
	if err := db.AutoMigrate(&ImageRecord{}, &SourceRecord{}, &PaletteRecord{}); err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if debug {
		getLogger().Debug("database connection initialized",
			"path", connectionInfo,
			"schema_version", SchemaVersion)
	}

	return nil
}

// createGormLogger routes gorm's own logging through slog at warn level so
// slow queries surface without flooding the log.
func createGormLogger() logger.Interface {
	return logger.New(
		slog.NewLogLogger(getLogger().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}
