// Package selector is the caller-facing orchestration layer: selection
// entry point, shown-event recording with optional palette extraction, and
// preview/statistics queries.
package selector

import (
	"context"
	"log/slog"
	"time"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/errors"
	"github.com/tkivisto/wallshift/internal/extractor"
	"github.com/tkivisto/wallshift/internal/logging"
	"github.com/tkivisto/wallshift/internal/selection"
	"github.com/tkivisto/wallshift/internal/stats"
	"github.com/tkivisto/wallshift/internal/timeofday"
)

// PreviewCandidate is one entry of the preview listing: an image with its
// absolute and normalized weight plus the state that produced them.
type PreviewCandidate struct {
	Filepath         string                    `json:"filepath"`
	Weight           float64                   `json:"weight"`
	NormalizedWeight float64                   `json:"normalized_weight"`
	Breakdown        selection.WeightBreakdown `json:"breakdown"`
	IsFavorite       bool                      `json:"is_favorite"`
	TimesShown       int                       `json:"times_shown"`
	SourceID         string                    `json:"source_id"`
	LastShownAt      *time.Time                `json:"last_shown_at,omitempty"`
}

// Selector combines candidate retrieval, constraint filtering, weighted
// sampling and persistence into the public selection API.
type Selector struct {
	cfg       conf.SelectionConfig
	store     datastore.Interface
	provider  *selection.Provider
	applier   *selection.ConstraintApplier
	engine    *selection.Engine
	extractor *extractor.Extractor
	stats     *stats.Collector
	logger    *slog.Logger
}

// New wires a selector from its parts. timeTarget may be nil to disable
// time-of-day adaptation; ext may be nil to disable palette extraction on
// shown events.
func New(cfg conf.SelectionConfig, store datastore.Interface, timeTarget *timeofday.Adapter, ext *extractor.Extractor) *Selector {
	var targetProvider selection.TimeTargetProvider
	if timeTarget != nil {
		targetProvider = timeTarget
	}
	return &Selector{
		cfg:       cfg,
		store:     store,
		provider:  selection.NewProvider(store),
		applier:   selection.NewConstraintApplier(store, cfg.MinColorSimilarity),
		engine:    selection.NewEngine(cfg, store, targetProvider),
		extractor: ext,
		stats:     stats.NewCollector(store),
		logger:    logging.ForService("selector"),
	}
}

// SelectImages picks count images honoring the constraints and returns
// their filepaths. Collections beyond the streaming threshold are sampled
// through the bounded-memory path instead of loading every candidate.
func (s *Selector) SelectImages(ctx context.Context, count int, constraints *selection.Constraints) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	var (
		picked []datastore.ImageRecord
		err    error
	)
	if streaming, sourceID := s.useStreaming(constraints); streaming {
		picked, err = s.engine.StreamingSelect(ctx, count, sourceID, constraints, s.applier)
	} else {
		picked, err = s.selectInMemory(count, constraints)
	}
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(picked))
	for i := range picked {
		paths[i] = picked[i].Filepath
	}
	return paths, nil
}

func (s *Selector) selectInMemory(count int, constraints *selection.Constraints) ([]datastore.ImageRecord, error) {
	candidates, err := s.provider.GetCandidates(selection.QueryFromConstraints(constraints))
	if err != nil {
		return nil, err
	}
	candidates, err = s.applier.Apply(candidates, constraints)
	if err != nil {
		return nil, err
	}
	return s.engine.Select(candidates, count, constraints)
}

// useStreaming decides the selection path. Streaming handles the unfiltered
// and single-source cases; multi-source or exclusion constraints always take
// the in-memory path.
func (s *Selector) useStreaming(constraints *selection.Constraints) (bool, string) {
	threshold := s.cfg.StreamingThreshold
	if threshold <= 0 {
		return false, ""
	}
	sourceID := ""
	if constraints != nil {
		if len(constraints.Sources) > 1 || len(constraints.ExcludeFilepaths) > 0 {
			return false, ""
		}
		if len(constraints.Sources) == 1 {
			sourceID = constraints.Sources[0]
		}
	}

	total, err := s.store.CountImages()
	if err != nil {
		s.logger.Warn("image count failed, using in-memory selection", "error", err)
		return false, ""
	}
	return total > int64(threshold), sourceID
}

// RecordShown registers that an image was displayed: increments its counters
// and its source's, invalidates cached statistics, and, when the image has
// no stored palette, kicks off background extraction.
func (s *Selector) RecordShown(ctx context.Context, filepath string) error {
	if err := s.store.RecordImageShown(filepath, time.Now()); err != nil {
		return err
	}
	s.stats.Invalidate()

	if s.extractor == nil {
		return nil
	}
	palette, err := s.store.GetPalette(filepath)
	if err != nil {
		s.logger.Warn("palette lookup failed", "image", filepath, "error", err)
		return nil
	}
	if palette == nil {
		go s.extractAndStore(ctx, filepath)
	}
	return nil
}

// RecordShownWithPalette is RecordShown for callers that already hold the
// image's palette, storing it directly instead of extracting.
func (s *Selector) RecordShownWithPalette(filepath string, result *extractor.Result) error {
	if err := s.store.RecordImageShown(filepath, time.Now()); err != nil {
		return err
	}
	s.stats.Invalidate()

	if result != nil {
		if err := s.storePalette(filepath, result); err != nil {
			s.logger.Warn("palette store failed", "image", filepath, "error", err)
		}
	}
	return nil
}

func (s *Selector) extractAndStore(ctx context.Context, filepath string) {
	result, err := s.extractor.Extract(ctx, filepath)
	if err != nil {
		s.logger.Warn("background palette extraction failed", "image", filepath, "error", err)
		return
	}
	if err := s.storePalette(filepath, result); err != nil {
		s.logger.Warn("palette store failed", "image", filepath, "error", err)
		return
	}
	s.stats.Invalidate()
}

func (s *Selector) storePalette(filepath string, result *extractor.Result) error {
	record := &datastore.PaletteRecord{
		Filepath:         filepath,
		Background:       result.Background,
		Foreground:       result.Foreground,
		Cursor:           result.Cursor,
		AvgHue:           result.Metrics.AvgHue,
		AvgSaturation:    result.Metrics.AvgSaturation,
		AvgLightness:     result.Metrics.AvgLightness,
		ColorTemperature: result.Metrics.ColorTemperature,
		ExtractedAt:      time.Now(),
	}
	record.SetColors(result.Swatches)
	return s.store.UpsertPalette(record)
}

// ExtractMissingPalettes runs bulk extraction over every image without
// palette data, persisting each successful result.
func (s *Selector) ExtractMissingPalettes(ctx context.Context) (extractor.BatchSummary, error) {
	if s.extractor == nil {
		return extractor.BatchSummary{}, errors.Newf("no palette extractor configured").
			Component("selector").
			Category(errors.CategoryConfiguration).
			Build()
	}

	images, err := s.store.GetImagesWithoutPalettes()
	if err != nil {
		return extractor.BatchSummary{}, err
	}
	paths := make([]string, len(images))
	for i := range images {
		paths[i] = images[i].Filepath
	}

	summary := s.extractor.ExtractBatch(ctx, paths, func(r extractor.BatchResult) {
		if r.Err != nil || r.Result == nil {
			return
		}
		if err := s.storePalette(r.Filepath, r.Result); err != nil {
			s.logger.Warn("palette store failed", "image", r.Filepath, "error", err)
		}
	})
	s.stats.Invalidate()
	return summary, nil
}

// GetPreviewCandidates scores every candidate and returns the top count
// with weights normalized over the full candidate set.
func (s *Selector) GetPreviewCandidates(count int, constraints *selection.Constraints) ([]PreviewCandidate, error) {
	if count <= 0 {
		return nil, nil
	}

	candidates, err := s.provider.GetCandidates(selection.QueryFromConstraints(constraints))
	if err != nil {
		return nil, err
	}
	candidates, err = s.applier.Apply(candidates, constraints)
	if err != nil {
		return nil, err
	}

	scored, err := s.engine.ScoreCandidates(candidates, constraints)
	if err != nil {
		return nil, err
	}

	var total float64
	for i := range scored {
		total += scored[i].Weight
	}

	if count > len(scored) {
		count = len(scored)
	}
	preview := make([]PreviewCandidate, count)
	for i := 0; i < count; i++ {
		entry := scored[i]
		normalized := 0.0
		if total > 0 {
			normalized = entry.Weight / total
		}
		preview[i] = PreviewCandidate{
			Filepath:         entry.Image.Filepath,
			Weight:           entry.Weight,
			NormalizedWeight: normalized,
			Breakdown:        entry.Breakdown,
			IsFavorite:       entry.Image.IsFavorite,
			TimesShown:       entry.Image.TimesShown,
			SourceID:         entry.Image.SourceID,
			LastShownAt:      entry.Image.LastShownAt,
		}
	}
	return preview, nil
}

// Statistics returns the cached collection summary.
func (s *Selector) Statistics() (*stats.Summary, error) {
	return s.stats.Summary()
}

// InvalidateStatistics drops the cached statistics snapshot, e.g. after an
// index run.
func (s *Selector) InvalidateStatistics() {
	s.stats.Invalidate()
}
