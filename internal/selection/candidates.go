// candidates.go: candidate retrieval and constraint filtering. Retrieval
// resolves to the narrowest storage query and re-validates file existence so
// a lagging index never hands out phantom paths.
package selection

import (
	"log/slog"
	"os"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/logging"
)

// Provider retrieves candidate images from the store.
type Provider struct {
	store  datastore.Interface
	logger *slog.Logger

	// statFunc is swappable for tests; defaults to os.Stat.
	statFunc func(string) (os.FileInfo, error)
}

// NewProvider creates a candidate provider backed by the given store.
func NewProvider(store datastore.Interface) *Provider {
	return &Provider{
		store:    store,
		logger:   logging.ForService("selection"),
		statFunc: os.Stat,
	}
}

// GetCandidates resolves the query to the narrowest applicable storage call,
// drops records whose backing file no longer exists, then applies the
// exclude set.
func (p *Provider) GetCandidates(query CandidateQuery) ([]datastore.ImageRecord, error) {
	candidates, err := p.fetch(query)
	if err != nil {
		return nil, err
	}

	result := candidates[:0]
	dropped := 0
	for _, candidate := range candidates {
		if _, ok := query.Exclude[candidate.Filepath]; ok {
			continue
		}
		if _, err := p.statFunc(candidate.Filepath); err != nil {
			dropped++
			continue
		}
		result = append(result, candidate)
	}
	if dropped > 0 {
		p.logger.Debug("dropped phantom index entries", "count", dropped)
		if m := getMetrics(); m != nil {
			m.RecordPhantomDrops(dropped)
		}
	}
	return result, nil
}

func (p *Provider) fetch(query CandidateQuery) ([]datastore.ImageRecord, error) {
	switch {
	case len(query.Sources) > 0:
		return p.store.GetImagesBySources(query.Sources)
	case query.SourceID != "":
		return p.store.GetImagesBySource(query.SourceID)
	case query.SourceType != "":
		return p.fetchBySourceType(query.SourceType)
	case query.FavoritesOnly:
		return p.store.GetFavoriteImages()
	default:
		return p.store.GetAllImages()
	}
}

func (p *Provider) fetchBySourceType(sourceType string) ([]datastore.ImageRecord, error) {
	sources, err := p.store.GetAllSources()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, source := range sources {
		if source.SourceType == sourceType {
			ids = append(ids, source.SourceID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return p.store.GetImagesBySources(ids)
}

// ConstraintApplier narrows a candidate set by the caller's constraints.
type ConstraintApplier struct {
	store            datastore.Interface
	defaultThreshold float64
}

// NewConstraintApplier creates an applier. defaultThreshold is the configured
// min color similarity used when a target palette constraint does not carry
// its own.
func NewConstraintApplier(store datastore.Interface, defaultThreshold float64) *ConstraintApplier {
	return &ConstraintApplier{store: store, defaultThreshold: defaultThreshold}
}

// Apply filters candidates. A nil constraints object is the identity. When a
// target palette is set, all relevant palettes are batch-loaded in a single
// query before filtering, and candidates without palette data are excluded
// outright: hard filtering treats "unknown" as a failure to match, unlike the
// soft scoring path.
func (a *ConstraintApplier) Apply(candidates []datastore.ImageRecord, c *Constraints) ([]datastore.ImageRecord, error) {
	if c == nil {
		return candidates, nil
	}

	var palettes map[string]datastore.PaletteRecord
	if c.TargetPalette != nil {
		filepaths := make([]string, len(candidates))
		for i, candidate := range candidates {
			filepaths[i] = candidate.Filepath
		}
		var err error
		palettes, err = a.store.GetPalettesByFilepaths(filepaths)
		if err != nil {
			return nil, err
		}
	}
	threshold := c.colorSimilarityThreshold(a.defaultThreshold)

	result := make([]datastore.ImageRecord, 0, len(candidates))
	for _, candidate := range candidates {
		if !dimensionsOK(&candidate, c) {
			continue
		}
		if c.FavoritesOnly && !candidate.IsFavorite {
			continue
		}
		if c.TargetPalette != nil {
			record, ok := palettes[candidate.Filepath]
			if !ok {
				continue
			}
			palette := PaletteFromRecord(&record)
			if colors.Similarity(*palette, *c.TargetPalette) < threshold {
				continue
			}
		}
		result = append(result, candidate)
	}
	return result, nil
}

// dimensionsOK checks the dimension bounds. Each check is silently skipped
// when the candidate lacks that metric.
func dimensionsOK(candidate *datastore.ImageRecord, c *Constraints) bool {
	if c.MinWidth > 0 && candidate.Width > 0 && candidate.Width < c.MinWidth {
		return false
	}
	if c.MinHeight > 0 && candidate.Height > 0 && candidate.Height < c.MinHeight {
		return false
	}
	if c.MinAspectRatio > 0 && candidate.AspectRatio > 0 && candidate.AspectRatio < c.MinAspectRatio {
		return false
	}
	if c.MaxAspectRatio > 0 && candidate.AspectRatio > 0 && candidate.AspectRatio > c.MaxAspectRatio {
		return false
	}
	return true
}

// PaletteFromRecord converts a persisted palette row into the shape the
// color math operates on. Empty swatches are dropped so perceptual matching
// only sees real colors.
func PaletteFromRecord(record *datastore.PaletteRecord) *colors.Palette {
	if record == nil {
		return nil
	}
	var swatches []string
	for _, color := range record.Colors() {
		if color != "" {
			swatches = append(swatches, color)
		}
	}
	return &colors.Palette{
		Metrics: colors.Metrics{
			AvgHue:           record.AvgHue,
			AvgSaturation:    record.AvgSaturation,
			AvgLightness:     record.AvgLightness,
			ColorTemperature: record.ColorTemperature,
		},
		Swatches: swatches,
	}
}
