// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tkivisto/wallshift/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// operations the rest of the engine is allowed to perform.
type Interface interface {
	Open() error
	Close() error

	// Image operations
	GetImage(filepath string) (*ImageRecord, error)
	InsertImage(image *ImageRecord) error
	UpdateImage(image *ImageRecord) error
	UpsertImage(image *ImageRecord) error
	DeleteImage(filepath string) error
	GetAllImages() ([]ImageRecord, error)
	GetImagesBySource(sourceID string) ([]ImageRecord, error)
	GetImagesBySources(sourceIDs []string) ([]ImageRecord, error)
	GetFavoriteImages() ([]ImageRecord, error)
	RecordImageShown(filepath string, shownAt time.Time) error
	BatchUpsertImages(images []ImageRecord, chunkSize int) (int, error)
	BatchDeleteImages(filepaths []string, chunkSize int) (int, error)
	GetImagesCursor(batchSize int, sourceID string) *ImagesCursor
	GetImageMtimes(pathPrefix string) (map[string]int64, error)

	// Source operations
	GetSource(sourceID string) (*SourceRecord, error)
	UpsertSource(source *SourceRecord) error
	GetAllSources() ([]SourceRecord, error)
	GetSourcesByIDs(sourceIDs []string) (map[string]SourceRecord, error)

	// Palette operations
	UpsertPalette(palette *PaletteRecord) error
	GetPalette(filepath string) (*PaletteRecord, error)
	GetPalettesByFilepaths(filepaths []string) (map[string]PaletteRecord, error)
	GetImagesWithPalettes() ([]ImageRecord, error)
	GetImagesWithoutPalettes() ([]ImageRecord, error)

	// Aggregates backing collection statistics
	CountImages() (int64, error)
	CountSources() (int64, error)
	CountImagesWithPalettes() (int64, error)
	CountShownImages() (int64, error)
	SumTimesShown() (int64, error)
	CountByLightnessBuckets(bounds []float64) ([]int, error)
	CountByHueBuckets(bucketCount int) ([]int, error)
	CountBySaturationBuckets(bounds []float64) ([]int, error)
	CountByFreshness(now time.Time, freshWindow, recentWindow time.Duration) (FreshnessCounts, error)

	// Maintenance
	ClearHistory() error
	DeleteAllImages() error
}

// DataStore implements Interface using a GORM database. Every operation is
// serialized by a single mutex so the store is safe to share across the
// indexing, extraction and UI callback goroutines.
type DataStore struct {
	DB *gorm.DB
	mu sync.Mutex
}

// New creates a store for the configured backend. SQLite is the only
// backend; each profile gets a single database file.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{Settings: settings}
	}
	return nil
}

// lock acquires the store mutex and returns the unlock function, for use as
// defer ds.lock()().
func (ds *DataStore) lock() func() {
	ds.mu.Lock()
	return ds.mu.Unlock
}
