package selector

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/indexer"
	"github.com/tkivisto/wallshift/internal/selection"
)

func newSelectorStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "selector-test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// seedOnDisk indexes real files so existence validation passes.
func seedOnDisk(t *testing.T, store datastore.Interface, count int) []string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "walls")
	paths := make([]string, count)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("img-%02d.png", i))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		f, err := os.Create(paths[i])
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 24))))
		require.NoError(t, f.Close())
	}

	ix := indexer.New(store, "")
	_, err := ix.IndexDirectory(context.Background(), dir, false, 10)
	require.NoError(t, err)
	return paths
}

func newTestSelector(store datastore.Interface) *Selector {
	return New(conf.DefaultSelectionConfig(), store, nil, nil)
}

func TestSelectImagesBasic(t *testing.T) {
	store := newSelectorStore(t)
	seedOnDisk(t, store, 6)

	s := newTestSelector(store)
	paths, err := s.SelectImages(context.Background(), 3, nil)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.NoError(t, err, "selected path must exist on disk")
	}
}

func TestSelectImagesEdgeCounts(t *testing.T) {
	store := newSelectorStore(t)
	seedOnDisk(t, store, 4)
	s := newTestSelector(store)

	paths, err := s.SelectImages(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = s.SelectImages(context.Background(), -3, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = s.SelectImages(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}

func TestSelectImagesEmptyCollection(t *testing.T) {
	store := newSelectorStore(t)
	s := newTestSelector(store)

	paths, err := s.SelectImages(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSelectImagesDeletedFileNeverReturned(t *testing.T) {
	store := newSelectorStore(t)
	paths := seedOnDisk(t, store, 5)
	require.NoError(t, os.Remove(paths[2]))

	s := newTestSelector(store)
	for trial := 0; trial < 20; trial++ {
		selected, err := s.SelectImages(context.Background(), 4, nil)
		require.NoError(t, err)
		assert.NotContains(t, selected, paths[2])
	}
}

func TestSelectImagesImpossibleDimensions(t *testing.T) {
	store := newSelectorStore(t)
	seedOnDisk(t, store, 5)

	s := newTestSelector(store)
	paths, err := s.SelectImages(context.Background(), 3, &selection.Constraints{
		MinWidth:  100000,
		MinHeight: 100000,
	})
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestSelectImagesStreamingThreshold(t *testing.T) {
	store := newSelectorStore(t)
	seedOnDisk(t, store, 6)

	cfg := conf.DefaultSelectionConfig()
	cfg.StreamingThreshold = 3
	cfg.StreamingBatchSize = 2
	s := New(cfg, store, nil, nil)

	paths, err := s.SelectImages(context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}

func TestRecordShownPersists(t *testing.T) {
	store := newSelectorStore(t)
	paths := seedOnDisk(t, store, 2)
	s := newTestSelector(store)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordShown(context.Background(), paths[0]))
	}

	record, err := store.GetImage(paths[0])
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 3, record.TimesShown)
	assert.NotNil(t, record.LastShownAt)

	source, err := store.GetSource(record.SourceID)
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, 3, source.TimesShown)
}

func TestGetPreviewCandidates(t *testing.T) {
	store := newSelectorStore(t)
	seedOnDisk(t, store, 5)

	s := newTestSelector(store)
	preview, err := s.GetPreviewCandidates(3, nil)
	require.NoError(t, err)
	require.Len(t, preview, 3)

	var sum float64
	for i, candidate := range preview {
		if i > 0 {
			assert.GreaterOrEqual(t, preview[i-1].Weight, candidate.Weight)
		}
		assert.Greater(t, candidate.NormalizedWeight, 0.0)
		sum += candidate.NormalizedWeight
	}
	// Only the top 3 of 5 are returned, so normalized weights sum below 1.
	assert.LessOrEqual(t, sum, 1.0+1e-9)

	preview, err = s.GetPreviewCandidates(0, nil)
	require.NoError(t, err)
	assert.Empty(t, preview)
}

func TestStatisticsAccessor(t *testing.T) {
	store := newSelectorStore(t)
	paths := seedOnDisk(t, store, 4)
	s := newTestSelector(store)

	summary, err := s.Statistics()
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalImages)

	require.NoError(t, s.RecordShown(context.Background(), paths[0]))

	summary, err = s.Statistics()
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.ShownImages)
}

func TestRecordShownUnknownImage(t *testing.T) {
	store := newSelectorStore(t)
	s := newTestSelector(store)

	err := s.RecordShown(context.Background(), "/no/such/image.png")
	assert.Error(t, err)
}

func TestSelectImagesFavoritesOnly(t *testing.T) {
	store := newSelectorStore(t)
	paths := seedOnDisk(t, store, 4)

	record, err := store.GetImage(paths[1])
	require.NoError(t, err)
	require.NotNil(t, record)
	record.IsFavorite = true
	require.NoError(t, store.UpdateImage(record))

	s := newTestSelector(store)
	selected, err := s.SelectImages(context.Background(), 10, &selection.Constraints{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, paths[1], selected[0])
}
