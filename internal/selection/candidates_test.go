package selection

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkivisto/wallshift/internal/datastore"
)

func statAlwaysExists(string) (os.FileInfo, error) { return nil, nil }

func TestGetCandidatesDropsPhantoms(t *testing.T) {
	store := newSelectionStore(t)
	seedImages(t, store, 3, "wk")

	provider := NewProvider(store)
	provider.statFunc = func(path string) (os.FileInfo, error) {
		if path == "/library/wk/img-001.jpg" {
			return nil, os.ErrNotExist
		}
		return nil, nil
	}

	candidates, err := provider.GetCandidates(CandidateQuery{})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, candidate := range candidates {
		assert.NotEqual(t, "/library/wk/img-001.jpg", candidate.Filepath)
	}
}

func TestGetCandidatesExcludeSet(t *testing.T) {
	store := newSelectionStore(t)
	seedImages(t, store, 3, "wk")

	provider := NewProvider(store)
	provider.statFunc = statAlwaysExists

	candidates, err := provider.GetCandidates(CandidateQuery{
		Exclude: map[string]struct{}{"/library/wk/img-000.jpg": {}},
	})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestGetCandidatesBySource(t *testing.T) {
	store := newSelectionStore(t)
	seedImages(t, store, 2, "alpha")
	seedImages(t, store, 3, "beta")

	provider := NewProvider(store)
	provider.statFunc = statAlwaysExists

	candidates, err := provider.GetCandidates(CandidateQuery{SourceID: "beta"})
	require.NoError(t, err)
	assert.Len(t, candidates, 3)

	candidates, err = provider.GetCandidates(CandidateQuery{Sources: []string{"alpha", "beta"}})
	require.NoError(t, err)
	assert.Len(t, candidates, 5)
}

func TestGetCandidatesBySourceType(t *testing.T) {
	store := newSelectionStore(t)
	seedImages(t, store, 2, "alpha")
	seedImages(t, store, 3, "beta")
	require.NoError(t, store.UpsertSource(&datastore.SourceRecord{SourceID: "alpha", SourceType: datastore.SourceTypeLocal}))
	require.NoError(t, store.UpsertSource(&datastore.SourceRecord{SourceID: "beta", SourceType: datastore.SourceTypeFavorites}))

	provider := NewProvider(store)
	provider.statFunc = statAlwaysExists

	candidates, err := provider.GetCandidates(CandidateQuery{SourceType: datastore.SourceTypeLocal})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	candidates, err = provider.GetCandidates(CandidateQuery{SourceType: "remote"})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestApplyNilConstraintsIsIdentity(t *testing.T) {
	store := newSelectionStore(t)
	images := seedImages(t, store, 3, "wk")

	applier := NewConstraintApplier(store, 0.5)
	result, err := applier.Apply(images, nil)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestApplyDimensionConstraints(t *testing.T) {
	store := newSelectionStore(t)
	images := seedImages(t, store, 3, "wk")
	images[0].Width = 800
	images[0].Height = 600
	images[1].Width = 0 // unknown dimensions skip the check
	images[1].Height = 0
	images[1].AspectRatio = 0

	applier := NewConstraintApplier(store, 0.5)
	result, err := applier.Apply(images, &Constraints{MinWidth: 1000, MinHeight: 700})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.NotEqual(t, images[0].Filepath, result[0].Filepath)
}

func TestApplyFavoritesOnly(t *testing.T) {
	store := newSelectionStore(t)
	images := seedImages(t, store, 3, "wk")
	images[1].IsFavorite = true

	applier := NewConstraintApplier(store, 0.5)
	result, err := applier.Apply(images, &Constraints{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, images[1].Filepath, result[0].Filepath)
}

func TestApplyHardColorFilterExcludesMissingPalettes(t *testing.T) {
	store := newSelectionStore(t)
	images := seedImages(t, store, 3, "wk")

	// Only img-000 has a palette, and it matches the target exactly.
	palette := &datastore.PaletteRecord{
		Filepath:         images[0].Filepath,
		AvgHue:           210,
		AvgSaturation:    0.5,
		AvgLightness:     0.5,
		ColorTemperature: -0.2,
		ExtractedAt:      time.Now(),
	}
	require.NoError(t, store.UpsertPalette(palette))

	target := PaletteFromRecord(palette)
	applier := NewConstraintApplier(store, 0.5)
	result, err := applier.Apply(images, &Constraints{TargetPalette: target})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, images[0].Filepath, result[0].Filepath)
}

func TestApplyColorSimilarityThreshold(t *testing.T) {
	store := newSelectionStore(t)
	images := seedImages(t, store, 2, "wk")

	warm := &datastore.PaletteRecord{
		Filepath: images[0].Filepath, AvgHue: 30, AvgSaturation: 0.8,
		AvgLightness: 0.6, ColorTemperature: 0.8, ExtractedAt: time.Now(),
	}
	cold := &datastore.PaletteRecord{
		Filepath: images[1].Filepath, AvgHue: 210, AvgSaturation: 0.2,
		AvgLightness: 0.2, ColorTemperature: -0.6, ExtractedAt: time.Now(),
	}
	require.NoError(t, store.UpsertPalette(warm))
	require.NoError(t, store.UpsertPalette(cold))

	applier := NewConstraintApplier(store, 0.5)
	result, err := applier.Apply(images, &Constraints{
		TargetPalette:      PaletteFromRecord(warm),
		MinColorSimilarity: 0.9,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, images[0].Filepath, result[0].Filepath)
}

func TestQueryFromConstraints(t *testing.T) {
	assert.Equal(t, CandidateQuery{}, QueryFromConstraints(nil))

	query := QueryFromConstraints(&Constraints{Sources: []string{"only"}})
	assert.Equal(t, "only", query.SourceID)
	assert.Nil(t, query.Sources)

	query = QueryFromConstraints(&Constraints{
		Sources:          []string{"a", "b"},
		ExcludeFilepaths: []string{"/x.jpg"},
	})
	assert.Equal(t, []string{"a", "b"}, query.Sources)
	_, ok := query.Exclude["/x.jpg"]
	assert.True(t, ok)
}

func TestPaletteFromRecordDropsEmptySwatches(t *testing.T) {
	record := &datastore.PaletteRecord{AvgHue: 120}
	record.SetColors([]string{"#112233", "", "#445566"})

	palette := PaletteFromRecord(record)
	require.NotNil(t, palette)
	assert.Equal(t, []string{"#112233", "#445566"}, palette.Swatches)
	assert.InDelta(t, 120.0, palette.AvgHue, 1e-9)

	assert.Nil(t, PaletteFromRecord(nil))
}
