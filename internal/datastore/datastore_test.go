package datastore

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivisto/wallshift/internal/conf"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "wallshift-test.db")
	store := openStoreAt(t, dbPath)
	return store, dbPath
}

func openStoreAt(t *testing.T, dbPath string) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = dbPath

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testImage(path, sourceID string) ImageRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return ImageRecord{
		Filepath:       path,
		Filename:       filepath.Base(path),
		SourceID:       sourceID,
		Width:          1920,
		Height:         1080,
		AspectRatio:    1920.0 / 1080.0,
		FileSize:       123456,
		FileMtime:      now.Unix(),
		FirstIndexedAt: now,
		LastIndexedAt:  now,
	}
}

func TestGetImageMissing(t *testing.T) {
	store, _ := newTestStore(t)

	image, err := store.GetImage("/no/such/file.jpg")
	require.NoError(t, err)
	assert.Nil(t, image)
}

func TestUpsertPreservesHistory(t *testing.T) {
	store, _ := newTestStore(t)

	img := testImage("/walls/nature/a.jpg", "nature")
	require.NoError(t, store.InsertImage(&img))

	shownAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.RecordImageShown(img.Filepath, shownAt))

	// Re-index with changed metadata, as the indexer does for a modified file.
	updated := img
	updated.Width = 3840
	updated.Height = 2160
	updated.FileMtime = img.FileMtime + 60
	updated.FirstIndexedAt = time.Now().Add(time.Hour) // must not win
	require.NoError(t, store.UpsertImage(&updated))

	got, err := store.GetImage(img.Filepath)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 3840, got.Width)
	assert.Equal(t, img.FileMtime+60, got.FileMtime)
	assert.Equal(t, 1, got.TimesShown, "times_shown must survive re-index")
	require.NotNil(t, got.LastShownAt)
	assert.WithinDuration(t, shownAt, *got.LastShownAt, time.Second)
	assert.WithinDuration(t, img.FirstIndexedAt, got.FirstIndexedAt, time.Second)
}

func TestRecordImageShownPersistsAcrossConnections(t *testing.T) {
	store, dbPath := newTestStore(t)

	img := testImage("/walls/city/b.jpg", "city")
	require.NoError(t, store.InsertImage(&img))
	require.NoError(t, store.UpsertSource(&SourceRecord{SourceID: "city", SourceType: SourceTypeLocal}))

	for range 3 {
		require.NoError(t, store.RecordImageShown(img.Filepath, time.Now()))
	}
	require.NoError(t, store.Close())

	// Fresh connection against the same file.
	reopened := openStoreAt(t, dbPath)
	got, err := reopened.GetImage(img.Filepath)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TimesShown)
	assert.NotNil(t, got.LastShownAt)

	source, err := reopened.GetSource("city")
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, 3, source.TimesShown)
}

func TestBatchUpsertAndDelete(t *testing.T) {
	store, _ := newTestStore(t)

	var images []ImageRecord
	for i := range 25 {
		images = append(images, testImage(fmt.Sprintf("/walls/bulk/img%03d.png", i), "bulk"))
	}

	written, err := store.BatchUpsertImages(images, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, written)

	count, err := store.CountImages()
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)

	var doomed []string
	for i := range 10 {
		doomed = append(doomed, fmt.Sprintf("/walls/bulk/img%03d.png", i))
	}
	deleted, err := store.BatchDeleteImages(doomed, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted)

	count, err = store.CountImages()
	require.NoError(t, err)
	assert.EqualValues(t, 15, count)
}

func TestImagesCursor(t *testing.T) {
	store, _ := newTestStore(t)

	for i := range 7 {
		img := testImage(fmt.Sprintf("/walls/cur/img%02d.jpg", i), "cur")
		require.NoError(t, store.InsertImage(&img))
	}

	cursor := store.GetImagesCursor(3, "")
	var seen []string
	var batchSizes []int
	for {
		batch, err := cursor.Next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		batchSizes = append(batchSizes, len(batch))
		for _, img := range batch {
			seen = append(seen, img.Filepath)
		}
	}

	assert.Equal(t, []int{3, 3, 1}, batchSizes)
	assert.Len(t, seen, 7)
	assert.IsIncreasing(t, seen, "cursor must yield stable filepath order")
}

func TestImagesCursorEmptyTable(t *testing.T) {
	store, _ := newTestStore(t)

	cursor := store.GetImagesCursor(5, "")
	batch, err := cursor.Next()
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestPaletteBatchLookup(t *testing.T) {
	store, _ := newTestStore(t)

	for i := range 3 {
		path := fmt.Sprintf("/walls/pal/img%d.jpg", i)
		img := testImage(path, "pal")
		require.NoError(t, store.InsertImage(&img))
		if i < 2 {
			palette := PaletteRecord{
				Filepath:     path,
				Background:   "#1a1b26",
				Foreground:   "#c0caf5",
				AvgLightness: 0.3 + float64(i)*0.2,
				ExtractedAt:  time.Now(),
			}
			palette.SetColors([]string{"#ff0000", "#00ff00", "#0000ff"})
			require.NoError(t, store.UpsertPalette(&palette))
		}
	}

	palettes, err := store.GetPalettesByFilepaths([]string{
		"/walls/pal/img0.jpg", "/walls/pal/img1.jpg", "/walls/pal/img2.jpg",
	})
	require.NoError(t, err)
	assert.Len(t, palettes, 2)
	assert.Contains(t, palettes, "/walls/pal/img0.jpg")
	assert.NotContains(t, palettes, "/walls/pal/img2.jpg")

	with, err := store.GetImagesWithPalettes()
	require.NoError(t, err)
	assert.Len(t, with, 2)

	without, err := store.GetImagesWithoutPalettes()
	require.NoError(t, err)
	require.Len(t, without, 1)
	assert.Equal(t, "/walls/pal/img2.jpg", without[0].Filepath)
}

func TestClearHistory(t *testing.T) {
	store, _ := newTestStore(t)

	img := testImage("/walls/h/a.jpg", "h")
	require.NoError(t, store.InsertImage(&img))
	require.NoError(t, store.UpsertSource(&SourceRecord{SourceID: "h", SourceType: SourceTypeLocal}))
	require.NoError(t, store.RecordImageShown(img.Filepath, time.Now()))

	require.NoError(t, store.ClearHistory())

	got, err := store.GetImage(img.Filepath)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TimesShown)
	assert.Nil(t, got.LastShownAt)

	source, err := store.GetSource("h")
	require.NoError(t, err)
	assert.Equal(t, 0, source.TimesShown)

	// History reset must not delete index data.
	count, err := store.CountImages()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeleteAllImages(t *testing.T) {
	store, _ := newTestStore(t)

	img := testImage("/walls/p/a.jpg", "p")
	require.NoError(t, store.InsertImage(&img))
	require.NoError(t, store.UpsertSource(&SourceRecord{SourceID: "p", SourceType: SourceTypeLocal}))
	palette := PaletteRecord{Filepath: img.Filepath, ExtractedAt: time.Now()}
	require.NoError(t, store.UpsertPalette(&palette))

	require.NoError(t, store.DeleteAllImages())

	for name, counter := range map[string]func() (int64, error){
		"images":   store.CountImages,
		"sources":  store.CountSources,
		"palettes": store.CountImagesWithPalettes,
	} {
		count, err := counter()
		require.NoError(t, err, name)
		assert.Zerof(t, count, "%s should be purged", name)
	}
}

func TestFreshnessCounts(t *testing.T) {
	store, _ := newTestStore(t)
	now := time.Now().UTC()

	mkShown := func(path string, shownAgo time.Duration) {
		img := testImage(path, "f")
		require.NoError(t, store.InsertImage(&img))
		if shownAgo >= 0 {
			require.NoError(t, store.RecordImageShown(path, now.Add(-shownAgo)))
		}
	}

	mkShown("/walls/f/never.jpg", -1)
	mkShown("/walls/f/fresh.jpg", 2*time.Hour)
	mkShown("/walls/f/recent.jpg", 3*24*time.Hour)
	mkShown("/walls/f/stale.jpg", 30*24*time.Hour)

	counts, err := store.CountByFreshness(now, 24*time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, FreshnessCounts{NeverShown: 1, Fresh: 1, Recent: 1, Stale: 1}, counts)
}

func TestGetImageMtimes(t *testing.T) {
	store, _ := newTestStore(t)

	a := testImage("/walls/m/a.jpg", "m")
	b := testImage("/walls/other/b.jpg", "other")
	require.NoError(t, store.InsertImage(&a))
	require.NoError(t, store.InsertImage(&b))

	mtimes, err := store.GetImageMtimes("/walls/m/")
	require.NoError(t, err)
	assert.Len(t, mtimes, 1)
	assert.Equal(t, a.FileMtime, mtimes["/walls/m/a.jpg"])

	all, err := store.GetImageMtimes("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetImageMtimesTreatsPrefixLiterally(t *testing.T) {
	store, _ := newTestStore(t)

	// An underscore in the prefix must not act as a single-character
	// wildcard and pull in a similarly named sibling directory.
	mine := testImage("/data/my_walls/a.jpg", "my_walls")
	sibling := testImage("/data/myXwalls/b.jpg", "myXwalls")
	percent := testImage("/data/my%walls/c.jpg", "mypwalls")
	require.NoError(t, store.InsertImage(&mine))
	require.NoError(t, store.InsertImage(&sibling))
	require.NoError(t, store.InsertImage(&percent))

	mtimes, err := store.GetImageMtimes("/data/my_walls/")
	require.NoError(t, err)
	require.Len(t, mtimes, 1)
	assert.Contains(t, mtimes, "/data/my_walls/a.jpg")

	mtimes, err = store.GetImageMtimes("/data/my%walls/")
	require.NoError(t, err)
	require.Len(t, mtimes, 1)
	assert.Contains(t, mtimes, "/data/my%walls/c.jpg")
}
