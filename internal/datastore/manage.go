// manage.go: image CRUD, batch operations and the shown-event transaction.
package datastore

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tkivisto/wallshift/internal/errors"
)

const defaultChunkSize = 100

// GetImage retrieves an image by its filepath. A missing record returns
// (nil, nil) so callers can distinguish absence from a database failure.
func (ds *DataStore) GetImage(filepath string) (*ImageRecord, error) {
	defer ds.lock()()

	var image ImageRecord
	err := ds.DB.First(&image, "filepath = ?", filepath).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "get_image", "filepath", filepath)
	}
	return &image, nil
}

// InsertImage creates a new image record.
func (ds *DataStore) InsertImage(image *ImageRecord) error {
	defer ds.lock()()

	if err := ds.DB.Create(image).Error; err != nil {
		return dbError(err, "insert_image", "filepath", image.Filepath)
	}
	return nil
}

// UpdateImage saves all fields of an existing image record.
func (ds *DataStore) UpdateImage(image *ImageRecord) error {
	defer ds.lock()()

	if err := ds.DB.Save(image).Error; err != nil {
		return dbError(err, "update_image", "filepath", image.Filepath)
	}
	return nil
}

// UpsertImage inserts the record or, when a record with the same filepath
// already exists, overwrites its metadata while leaving history columns
// (first_indexed_at, times_shown, last_shown_at) untouched.
func (ds *DataStore) UpsertImage(image *ImageRecord) error {
	defer ds.lock()()
	return ds.upsertImagesTx(ds.DB, []ImageRecord{*image})
}

// upsertImagesTx performs the idempotent merge keyed on filepath. History
// fields are deliberately absent from the update column list.
func (ds *DataStore) upsertImagesTx(tx *gorm.DB, images []ImageRecord) error {
	if len(images) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "filepath"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"filename", "source_id", "width", "height", "aspect_ratio",
			"file_size", "file_mtime", "is_favorite", "last_indexed_at",
		}),
	}).Create(&images).Error
	if err != nil {
		return dbError(err, "upsert_images", "count", len(images))
	}
	return nil
}

// DeleteImage removes an image and its palette.
func (ds *DataStore) DeleteImage(filepath string) error {
	defer ds.lock()()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("filepath = ?", filepath).Delete(&PaletteRecord{}).Error; err != nil {
			return dbError(err, "delete_palette", "filepath", filepath)
		}
		if err := tx.Where("filepath = ?", filepath).Delete(&ImageRecord{}).Error; err != nil {
			return dbError(err, "delete_image", "filepath", filepath)
		}
		return nil
	})
}

// GetAllImages retrieves every indexed image.
func (ds *DataStore) GetAllImages() ([]ImageRecord, error) {
	defer ds.lock()()

	var images []ImageRecord
	if err := ds.DB.Order("filepath").Find(&images).Error; err != nil {
		return nil, dbError(err, "get_all_images")
	}
	return images, nil
}

// GetImagesBySource retrieves all images belonging to one source.
func (ds *DataStore) GetImagesBySource(sourceID string) ([]ImageRecord, error) {
	defer ds.lock()()

	var images []ImageRecord
	if err := ds.DB.Where("source_id = ?", sourceID).Order("filepath").Find(&images).Error; err != nil {
		return nil, dbError(err, "get_images_by_source", "source_id", sourceID)
	}
	return images, nil
}

// GetImagesBySources retrieves all images belonging to any of the given sources.
func (ds *DataStore) GetImagesBySources(sourceIDs []string) ([]ImageRecord, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}
	defer ds.lock()()

	var images []ImageRecord
	if err := ds.DB.Where("source_id IN ?", sourceIDs).Order("filepath").Find(&images).Error; err != nil {
		return nil, dbError(err, "get_images_by_sources", "source_count", len(sourceIDs))
	}
	return images, nil
}

// GetFavoriteImages retrieves all favorite images.
func (ds *DataStore) GetFavoriteImages() ([]ImageRecord, error) {
	defer ds.lock()()

	var images []ImageRecord
	if err := ds.DB.Where("is_favorite = ?", true).Order("filepath").Find(&images).Error; err != nil {
		return nil, dbError(err, "get_favorite_images")
	}
	return images, nil
}

// RecordImageShown atomically increments the image's shown counter, stamps its
// last-shown time and updates the aggregated rotation state of its source.
func (ds *DataStore) RecordImageShown(filepath string, shownAt time.Time) (err error) {
	defer observeOp("record_shown", time.Now(), &err)
	defer ds.lock()()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var image ImageRecord
		if err := tx.First(&image, "filepath = ?", filepath).Error; err != nil {
			return dbError(err, "record_shown_lookup", "filepath", filepath)
		}

		updates := map[string]any{
			"times_shown":   gorm.Expr("times_shown + 1"),
			"last_shown_at": shownAt,
		}
		if err := tx.Model(&ImageRecord{}).Where("filepath = ?", filepath).Updates(updates).Error; err != nil {
			return dbError(err, "record_shown_image", "filepath", filepath)
		}

		if image.SourceID == "" {
			return nil
		}
		err := tx.Model(&SourceRecord{}).Where("source_id = ?", image.SourceID).Updates(map[string]any{
			"times_shown":   gorm.Expr("times_shown + 1"),
			"last_shown_at": shownAt,
		}).Error
		if err != nil {
			return dbError(err, "record_shown_source", "source_id", image.SourceID)
		}
		return nil
	})
}

// BatchUpsertImages merges records in chunks so transaction size stays
// bounded regardless of collection size. Returns the number of records
// written.
func (ds *DataStore) BatchUpsertImages(images []ImageRecord, chunkSize int) (written int, err error) {
	if len(images) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	defer observeOp("batch_upsert", time.Now(), &err)
	defer ds.lock()()

	for start := 0; start < len(images); start += chunkSize {
		end := min(start+chunkSize, len(images))
		chunk := images[start:end]
		err = ds.DB.Transaction(func(tx *gorm.DB) error {
			return ds.upsertImagesTx(tx, chunk)
		})
		if err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// BatchDeleteImages removes records and their palettes in chunks. Returns the
// number of image rows deleted.
func (ds *DataStore) BatchDeleteImages(filepaths []string, chunkSize int) (deleted int, err error) {
	if len(filepaths) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	defer observeOp("batch_delete", time.Now(), &err)
	defer ds.lock()()

	for start := 0; start < len(filepaths); start += chunkSize {
		end := min(start+chunkSize, len(filepaths))
		chunk := filepaths[start:end]
		err = ds.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("filepath IN ?", chunk).Delete(&PaletteRecord{}).Error; err != nil {
				return dbError(err, "batch_delete_palettes", "count", len(chunk))
			}
			result := tx.Where("filepath IN ?", chunk).Delete(&ImageRecord{})
			if result.Error != nil {
				return dbError(result.Error, "batch_delete_images", "count", len(chunk))
			}
			deleted += int(result.RowsAffected)
			return nil
		})
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// GetImageMtimes returns {filepath: file_mtime} for every image whose path
// starts with the given prefix. An empty prefix covers the whole index. The
// incremental indexer uses this map for O(1) change detection.
func (ds *DataStore) GetImageMtimes(pathPrefix string) (map[string]int64, error) {
	defer ds.lock()()

	var rows []struct {
		Filepath  string
		FileMtime int64
	}
	query := ds.DB.Model(&ImageRecord{}).Select("filepath", "file_mtime")
	if pathPrefix != "" {
		query = query.Where("filepath LIKE ? ESCAPE '\\'", escapeLike(pathPrefix)+"%")
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, dbError(err, "get_image_mtimes", "prefix", pathPrefix)
	}

	mtimes := make(map[string]int64, len(rows))
	for _, row := range rows {
		mtimes[row.Filepath] = row.FileMtime
	}
	return mtimes, nil
}

// escapeLike neutralizes LIKE wildcards in a literal path so a directory
// named my_walls cannot match a sibling named myXwalls.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// ImagesCursor yields successive batches of images ordered by filepath using
// keyset pagination, so the full result set is never materialized in memory.
type ImagesCursor struct {
	ds        *DataStore
	batchSize int
	sourceID  string
	lastPath  string
	done      bool
}

// GetImagesCursor returns a cursor over the image table in stable filepath
// order. sourceID narrows the cursor to one source when non-empty.
func (ds *DataStore) GetImagesCursor(batchSize int, sourceID string) *ImagesCursor {
	if batchSize <= 0 {
		batchSize = defaultChunkSize
	}
	return &ImagesCursor{ds: ds, batchSize: batchSize, sourceID: sourceID}
}

// Next returns the next batch, at most batchSize records. It returns nil once
// the table is exhausted; an empty table yields nil on the first call.
func (c *ImagesCursor) Next() ([]ImageRecord, error) {
	if c.done {
		return nil, nil
	}
	defer c.ds.lock()()

	query := c.ds.DB.Where("filepath > ?", c.lastPath).Order("filepath").Limit(c.batchSize)
	if c.sourceID != "" {
		query = query.Where("source_id = ?", c.sourceID)
	}

	var batch []ImageRecord
	if err := query.Find(&batch).Error; err != nil {
		return nil, dbError(err, "images_cursor", "after", c.lastPath)
	}

	if len(batch) == 0 {
		c.done = true
		return nil, nil
	}
	c.lastPath = batch[len(batch)-1].Filepath
	if len(batch) < c.batchSize {
		c.done = true
	}
	return batch, nil
}

// ClearHistory resets times_shown and last_shown_at on all images and sources
// without touching index data.
func (ds *DataStore) ClearHistory() error {
	defer ds.lock()()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		reset := map[string]any{"times_shown": 0, "last_shown_at": nil}
		if err := tx.Model(&ImageRecord{}).Where("1 = 1").Updates(reset).Error; err != nil {
			return dbError(err, "clear_history_images")
		}
		if err := tx.Model(&SourceRecord{}).Where("1 = 1").Updates(reset).Error; err != nil {
			return dbError(err, "clear_history_sources")
		}
		return nil
	})
}

// DeleteAllImages purges images, palettes and sources together.
func (ds *DataStore) DeleteAllImages() error {
	defer ds.lock()()

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PaletteRecord{}).Error; err != nil {
			return dbError(err, "purge_palettes")
		}
		if err := tx.Where("1 = 1").Delete(&ImageRecord{}).Error; err != nil {
			return dbError(err, "purge_images")
		}
		if err := tx.Where("1 = 1").Delete(&SourceRecord{}).Error; err != nil {
			return dbError(err, "purge_sources")
		}
		return nil
	})
}

// dbError wraps a gorm error with datastore metadata. Context is given as
// alternating key, value pairs.
func dbError(err error, operation string, kv ...any) error {
	if m := getMetrics(); m != nil {
		m.RecordError(operation)
	}
	builder := errors.New(fmt.Errorf("%s: %w", operation, err)).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			builder = builder.Context(key, kv[i+1])
		}
	}
	return builder.Build()
}
