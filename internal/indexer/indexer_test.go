package indexer

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
)

func newIndexStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "indexer-test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func seedLibrary(t *testing.T, dir string, count int) []string {
	t.Helper()
	paths := make([]string, count)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("img-%02d.png", i))
		writePNG(t, paths[i], 64, 48)
	}
	return paths
}

func TestScanDirectoryFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	seedLibrary(t, dir, 5)
	for _, name := range []string{"notes.txt", "data.json", "run.sh"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	paths, err := ScanDirectory(dir, false)
	require.NoError(t, err)
	assert.Len(t, paths, 5)
}

func TestScanDirectoryMissingRoot(t *testing.T) {
	_, err := ScanDirectory("/no/such/directory", true)
	assert.Error(t, err)
}

func TestScanDirectoryRecursion(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "top.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "nested", "deep.png"), 10, 10)

	flat, err := ScanDirectory(dir, false)
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	recursive, err := ScanDirectory(dir, true)
	require.NoError(t, err)
	assert.Len(t, recursive, 2)
}

func TestScanDirectoryCaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "upper.PNG"), 10, 10)

	paths, err := ScanDirectory(dir, false)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestIndexImageMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walls", "sunset.png")
	writePNG(t, path, 320, 200)
	info, err := os.Stat(path)
	require.NoError(t, err)

	ix := New(newIndexStore(t), "")
	record := ix.IndexImage(path, info)
	require.NotNil(t, record)

	assert.Equal(t, path, record.Filepath)
	assert.Equal(t, "sunset.png", record.Filename)
	assert.Equal(t, "walls", record.SourceID)
	assert.Equal(t, 320, record.Width)
	assert.Equal(t, 200, record.Height)
	assert.InDelta(t, 1.6, record.AspectRatio, 1e-9)
	assert.Equal(t, info.ModTime().Unix(), record.FileMtime)
	assert.False(t, record.IsFavorite)
}

func TestIndexImageCorruptFileSoftFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	ix := New(newIndexStore(t), "")
	assert.Nil(t, ix.IndexImage(path, info))
}

func TestIndexImageFavoriteDetection(t *testing.T) {
	dir := t.TempDir()
	favorites := filepath.Join(dir, "favorites")
	path := filepath.Join(favorites, "pick.png")
	writePNG(t, path, 10, 10)
	info, err := os.Stat(path)
	require.NoError(t, err)

	ix := New(newIndexStore(t), favorites)
	record := ix.IndexImage(path, info)
	require.NotNil(t, record)
	assert.True(t, record.IsFavorite)

	outside := filepath.Join(dir, "other", "pick.png")
	writePNG(t, outside, 10, 10)
	info, err = os.Stat(outside)
	require.NoError(t, err)
	record = ix.IndexImage(outside, info)
	require.NotNil(t, record)
	assert.False(t, record.IsFavorite)
}

func TestIndexDirectoryCountsAndPersists(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	seedLibrary(t, dir, 5)
	for _, name := range []string{"a.txt", "b.json", "c.sh"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	ix := New(store, "")
	indexed, err := ix.IndexDirectory(context.Background(), dir, false, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, indexed)

	all, err := store.GetAllImages()
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestIndexDirectoryIdempotent(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	seedLibrary(t, dir, 4)

	ix := New(store, "")
	first, err := ix.IndexDirectory(context.Background(), dir, false, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, first)

	second, err := ix.IndexDirectoryIncremental(context.Background(), dir, false, 10, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Indexed())
	assert.Equal(t, 4, second.Unchanged)
}

func TestIncrementalDetectsChangesAndRemovals(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	paths := seedLibrary(t, dir, 4)

	ix := New(store, "")
	_, err := ix.IndexDirectoryIncremental(context.Background(), dir, false, 10, nil)
	require.NoError(t, err)

	// Change one file's mtime, delete another, add a new one.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(paths[0], future, future))
	require.NoError(t, os.Remove(paths[1]))
	writePNG(t, filepath.Join(dir, "fresh.png"), 10, 10)

	result, err := ix.IndexDirectoryIncremental(context.Background(), dir, false, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, 2, result.Unchanged)
	assert.Equal(t, 1, result.Removed)

	gone, err := store.GetImage(paths[1])
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestIncrementalPreservesShownHistory(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	paths := seedLibrary(t, dir, 2)

	ix := New(store, "")
	_, err := ix.IndexDirectoryIncremental(context.Background(), dir, false, 10, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordImageShown(paths[0], time.Now()))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(paths[0], future, future))
	_, err = ix.IndexDirectoryIncremental(context.Background(), dir, false, 10, nil)
	require.NoError(t, err)

	record, err := store.GetImage(paths[0])
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.TimesShown)
	assert.NotNil(t, record.LastShownAt)
}

func TestIncrementalSparesWildcardSiblings(t *testing.T) {
	store := newIndexStore(t)
	root := t.TempDir()

	// my_walls and myXwalls collide under a LIKE pattern where the
	// underscore matches any character. Re-indexing one directory must
	// never delete the other's records.
	mine := filepath.Join(root, "my_walls")
	sibling := filepath.Join(root, "myXwalls")
	minePaths := seedLibrary(t, mine, 2)
	siblingPaths := seedLibrary(t, sibling, 2)

	ix := New(store, "")
	_, err := ix.IndexDirectoryIncremental(context.Background(), mine, false, 10, nil)
	require.NoError(t, err)
	_, err = ix.IndexDirectoryIncremental(context.Background(), sibling, false, 10, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordImageShown(siblingPaths[0], time.Now()))

	result, err := ix.IndexDirectoryIncremental(context.Background(), mine, false, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Removed)
	assert.Equal(t, 2, result.Unchanged)

	for _, path := range siblingPaths {
		record, err := store.GetImage(path)
		require.NoError(t, err)
		require.NotNil(t, record, "sibling record %s was deleted", path)
	}
	record, err := store.GetImage(siblingPaths[0])
	require.NoError(t, err)
	assert.Equal(t, 1, record.TimesShown)

	for _, path := range minePaths {
		record, err := store.GetImage(path)
		require.NoError(t, err)
		require.NotNil(t, record)
	}
}

func TestIncrementalProgressAndHook(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	seedLibrary(t, dir, 6)

	ix := New(store, "")
	var hookPaths []string
	ix.OnImagesIndexed = func(paths []string) error {
		hookPaths = append(hookPaths, paths...)
		return fmt.Errorf("hook failure must not abort indexing")
	}

	var calls int
	var lastTotal int
	result, err := ix.IndexDirectoryIncremental(context.Background(), dir, false, 2,
		func(processed, total int, message string) {
			calls++
			lastTotal = total
			assert.LessOrEqual(t, processed, total)
			assert.NotEmpty(t, message)
		})
	require.NoError(t, err)
	assert.Equal(t, 6, result.New)
	assert.Equal(t, 6, calls)
	assert.Equal(t, 6, lastTotal)
	assert.Len(t, hookPaths, 6)
}

func TestIncrementalCancellationKeepsPartialWork(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	seedLibrary(t, dir, 8)

	ctx, cancel := context.WithCancel(context.Background())
	ix := New(store, "")

	cancelAfter := 3
	processed := 0
	result, err := ix.IndexDirectoryIncremental(ctx, dir, false, 2,
		func(int, int, string) {
			processed++
			if processed == cancelAfter {
				cancel()
			}
		})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Less(t, result.New, 8)
}

func TestIndexDirectoryCreatesSources(t *testing.T) {
	store := newIndexStore(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wallhaven", "a.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "favorites", "b.png"), 10, 10)
	writePNG(t, filepath.Join(dir, "holiday", "c.png"), 10, 10)

	ix := New(store, "")
	_, err := ix.IndexDirectory(context.Background(), dir, true, 10)
	require.NoError(t, err)

	sources, err := store.GetAllSources()
	require.NoError(t, err)
	types := map[string]string{}
	for _, source := range sources {
		types[source.SourceID] = source.SourceType
	}
	assert.Equal(t, datastore.SourceTypeRemote, types["wallhaven"])
	assert.Equal(t, datastore.SourceTypeFavorites, types["favorites"])
	assert.Equal(t, datastore.SourceTypeLocal, types["holiday"])
}

func TestInferSourceType(t *testing.T) {
	assert.Equal(t, datastore.SourceTypeRemote, InferSourceType("wallhaven"))
	assert.Equal(t, datastore.SourceTypeRemote, InferSourceType("unsplash-nature"))
	assert.Equal(t, datastore.SourceTypeFavorites, InferSourceType("Favorites"))
	assert.Equal(t, datastore.SourceTypeLocal, InferSourceType("vacation-photos"))
}
