// model.go defines the data model for the wallpaper index
package datastore

import "time"

// SchemaVersion is bumped whenever the table layout changes in a way that
// existing databases cannot absorb through auto-migration.
const SchemaVersion = 1

// Source types inferred from the source id.
const (
	SourceTypeLocal     = "local"
	SourceTypeRemote    = "remote"
	SourceTypeFavorites = "favorites"
)

// ImageRecord represents one indexed wallpaper file. Filepath is the stable
// identity of the record for as long as the file is not moved.
type ImageRecord struct {
	Filepath       string  `gorm:"primaryKey"`
	Filename       string
	SourceID       string  `gorm:"index:idx_images_source"`
	Width          int
	Height         int
	AspectRatio    float64
	FileSize       int64
	FileMtime      int64 // mtime in unix seconds, used for change detection
	IsFavorite     bool  `gorm:"index:idx_images_favorite"`
	FirstIndexedAt time.Time
	LastIndexedAt  time.Time
	LastShownAt    *time.Time `gorm:"index:idx_images_last_shown"`
	TimesShown     int

	Palette *PaletteRecord `gorm:"foreignKey:Filepath;references:Filepath;constraint:OnDelete:CASCADE"`
}

// SourceRecord aggregates rotation state per source directory. One row per
// distinct source id, created lazily when the first image from that source is
// indexed.
type SourceRecord struct {
	SourceID    string `gorm:"primaryKey"`
	SourceType  string
	LastShownAt *time.Time
	TimesShown  int
}

// PaletteRecord caches the extracted color palette of one image, at most one
// per filepath. Presence implies a successful extraction; absence means the
// palette is unknown, which is a distinct state from a known neutral palette.
type PaletteRecord struct {
	Filepath string `gorm:"primaryKey"`

	Color0  string
	Color1  string
	Color2  string
	Color3  string
	Color4  string
	Color5  string
	Color6  string
	Color7  string
	Color8  string
	Color9  string
	Color10 string
	Color11 string
	Color12 string
	Color13 string
	Color14 string
	Color15 string

	Background string
	Foreground string
	Cursor     string

	// Derived metrics computed once at extraction time for fast filtering.
	AvgHue           float64 // circular mean hue in degrees, [0, 360)
	AvgSaturation    float64 // [0, 1]
	AvgLightness     float64 `gorm:"index:idx_palettes_lightness"` // [0, 1]
	ColorTemperature float64 `gorm:"index:idx_palettes_temperature"` // -1 cool to +1 warm

	ExtractedAt time.Time
}

// Colors returns the sixteen swatch colors in index order.
func (p *PaletteRecord) Colors() []string {
	return []string{
		p.Color0, p.Color1, p.Color2, p.Color3,
		p.Color4, p.Color5, p.Color6, p.Color7,
		p.Color8, p.Color9, p.Color10, p.Color11,
		p.Color12, p.Color13, p.Color14, p.Color15,
	}
}

// SetColors assigns up to sixteen swatch colors in index order.
func (p *PaletteRecord) SetColors(colors []string) {
	slots := []*string{
		&p.Color0, &p.Color1, &p.Color2, &p.Color3,
		&p.Color4, &p.Color5, &p.Color6, &p.Color7,
		&p.Color8, &p.Color9, &p.Color10, &p.Color11,
		&p.Color12, &p.Color13, &p.Color14, &p.Color15,
	}
	for i, slot := range slots {
		if i < len(colors) {
			*slot = colors[i]
		} else {
			*slot = ""
		}
	}
}

// FreshnessCounts buckets images by how recently they were shown.
type FreshnessCounts struct {
	NeverShown int // last_shown_at is null
	Fresh      int // shown within the fresh window
	Recent     int // shown within the recent window
	Stale      int // shown before the recent window
}
