// palettes.go: palette persistence and the batched lookups the selection
// engine depends on.
package datastore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tkivisto/wallshift/internal/errors"
)

// UpsertPalette stores the palette for an image, overwriting any previous
// extraction. Palettes are not versioned.
func (ds *DataStore) UpsertPalette(palette *PaletteRecord) error {
	defer ds.lock()()

	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filepath"}},
		UpdateAll: true,
	}).Create(palette).Error
	if err != nil {
		return dbError(err, "upsert_palette", "filepath", palette.Filepath)
	}
	return nil
}

// GetPalette retrieves the palette for one image, (nil, nil) when the palette
// is unknown.
func (ds *DataStore) GetPalette(filepath string) (*PaletteRecord, error) {
	defer ds.lock()()

	var palette PaletteRecord
	err := ds.DB.First(&palette, "filepath = ?", filepath).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "get_palette", "filepath", filepath)
	}
	return &palette, nil
}

// GetPalettesByFilepaths batch-loads palettes into a map keyed by filepath.
// This is a single IN query, not N round trips; the constraint filter and the
// scoring pass each call it once over possibly thousands of candidates.
func (ds *DataStore) GetPalettesByFilepaths(filepaths []string) (map[string]PaletteRecord, error) {
	if len(filepaths) == 0 {
		return map[string]PaletteRecord{}, nil
	}
	defer ds.lock()()

	result := make(map[string]PaletteRecord, len(filepaths))

	// SQLite caps the number of bound variables per statement, so very large
	// candidate sets are chunked. Still one query per chunk, never per path.
	const maxParams = 500
	for start := 0; start < len(filepaths); start += maxParams {
		end := min(start+maxParams, len(filepaths))

		var palettes []PaletteRecord
		if err := ds.DB.Where("filepath IN ?", filepaths[start:end]).Find(&palettes).Error; err != nil {
			return nil, dbError(err, "get_palettes_by_filepaths", "count", len(filepaths))
		}
		for _, palette := range palettes {
			result[palette.Filepath] = palette
		}
	}
	return result, nil
}

// GetImagesWithPalettes retrieves all images that have an extracted palette.
func (ds *DataStore) GetImagesWithPalettes() ([]ImageRecord, error) {
	defer ds.lock()()

	var images []ImageRecord
	err := ds.DB.
		Joins("JOIN palette_records ON palette_records.filepath = image_records.filepath").
		Order("image_records.filepath").
		Find(&images).Error
	if err != nil {
		return nil, dbError(err, "get_images_with_palettes")
	}
	return images, nil
}

// GetImagesWithoutPalettes retrieves all images still awaiting extraction.
func (ds *DataStore) GetImagesWithoutPalettes() ([]ImageRecord, error) {
	defer ds.lock()()

	var images []ImageRecord
	err := ds.DB.
		Joins("LEFT JOIN palette_records ON palette_records.filepath = image_records.filepath").
		Where("palette_records.filepath IS NULL").
		Order("image_records.filepath").
		Find(&images).Error
	if err != nil {
		return nil, dbError(err, "get_images_without_palettes")
	}
	return images, nil
}
