// streaming.go: constant-memory weighted selection over large libraries.
// Candidates are pulled in datastore cursor batches and folded into the same
// exponential-key reservoir the in-memory path uses, so both paths draw from
// the same distribution.
package selection

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/errors"
)

type streamedCandidate struct {
	key   float64
	image datastore.ImageRecord
}

type streamedHeap []streamedCandidate

func (h streamedHeap) Len() int           { return len(h) }
func (h streamedHeap) Less(i, j int) bool { return h[i].key < h[j].key }
func (h streamedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *streamedHeap) Push(x any)        { *h = append(*h, x.(streamedCandidate)) }
func (h *streamedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// StreamingSelect samples count images proportionally to weight without
// materializing the library. Memory is bounded by the reservoir size plus one
// cursor batch. sourceID narrows the stream to one source; empty means all.
func (e *Engine) StreamingSelect(ctx context.Context, count int, sourceID string, constraints *Constraints, applier *ConstraintApplier) ([]datastore.ImageRecord, error) {
	if count <= 0 {
		return nil, nil
	}

	batchSize := e.cfg.StreamingBatchSize
	if batchSize <= 0 {
		batchSize = conf.DefaultStreamingBatchSize
	}

	start := time.Now()

	now := start
	target, timeTarget := e.resolveTargets(constraints, now)
	var colorWeight float64
	if target != nil {
		colorWeight = e.cfg.ColorWeight
		if constraints != nil && constraints.ColorWeight > 0 {
			colorWeight = constraints.ColorWeight
		}
	}
	tolerance, strength := e.timeParams()

	// Source records are few; cache them across batches instead of
	// refetching per batch.
	sourceCache := make(map[string]datastore.SourceRecord)

	reservoir := make(streamedHeap, 0, count)
	heap.Init(&reservoir)

	seen := 0
	phantomDropped := 0
	cursor := e.store.GetImagesCursor(batchSize, sourceID)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("selection").
				Category(errors.CategoryCancellation).
				Context("operation", "streaming_select").
				Build()
		}

		batch, err := cursor.Next()
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		var dropped int
		batch, dropped = e.dropMissingFiles(batch)
		phantomDropped += dropped

		if applier != nil {
			batch, err = applier.Apply(batch, constraints)
			if err != nil {
				return nil, err
			}
		}
		if len(batch) == 0 {
			continue
		}
		seen += len(batch)

		if err := e.fillSourceCache(sourceCache, batch); err != nil {
			return nil, err
		}

		var palettes map[string]datastore.PaletteRecord
		if target != nil || timeTarget != nil {
			filepaths := make([]string, len(batch))
			for i := range batch {
				filepaths[i] = batch[i].Filepath
			}
			palettes, err = e.store.GetPalettesByFilepaths(filepaths)
			if err != nil {
				return nil, err
			}
		}

		for i := range batch {
			candidate := &batch[i]

			var weight float64
			if e.cfg.Enabled {
				var sourceLastShown *time.Time
				if source, ok := sourceCache[candidate.SourceID]; ok {
					sourceLastShown = source.LastShownAt
				}
				var palette *colors.Palette
				if record, ok := palettes[candidate.Filepath]; ok {
					palette = PaletteFromRecord(&record)
				}
				weight, _ = CalculateWeight(&e.cfg, &WeightInputs{
					Image:             candidate,
					SourceLastShownAt: sourceLastShown,
					Palette:           palette,
					TargetPalette:     target,
					ColorWeight:       colorWeight,
					TimeTarget:        timeTarget,
					TimeTolerance:     tolerance,
					TimeStrength:      strength,
					Now:               now,
				})
			} else {
				weight = 1.0
			}

			key := math.Inf(-1)
			if weight > 0 {
				if u := e.random(); u > 0 {
					key = math.Log(u) / weight
				}
			}

			if len(reservoir) < count {
				heap.Push(&reservoir, streamedCandidate{key: key, image: batch[i]})
				continue
			}
			if key > reservoir[0].key {
				reservoir[0] = streamedCandidate{key: key, image: batch[i]}
				heap.Fix(&reservoir, 0)
			}
		}
	}

	result := make([]datastore.ImageRecord, 0, len(reservoir))
	for _, entry := range reservoir {
		if !math.IsInf(entry.key, -1) {
			result = append(result, entry.image)
		}
	}
	if phantomDropped > 0 {
		e.logger.Debug("dropped phantom index entries", "count", phantomDropped)
	}
	if m := getMetrics(); m != nil {
		if phantomDropped > 0 {
			m.RecordPhantomDrops(phantomDropped)
		}
		m.RecordSelection("streaming", "success", time.Since(start).Seconds(), seen)
	}
	return result, nil
}

// dropMissingFiles re-validates file existence for one cursor batch. The
// index can lag the filesystem, and a selected path must exist when it is
// handed to the caller.
func (e *Engine) dropMissingFiles(batch []datastore.ImageRecord) ([]datastore.ImageRecord, int) {
	result := batch[:0]
	dropped := 0
	for i := range batch {
		if _, err := e.statFunc(batch[i].Filepath); err != nil {
			dropped++
			continue
		}
		result = append(result, batch[i])
	}
	return result, dropped
}

func (e *Engine) fillSourceCache(cache map[string]datastore.SourceRecord, batch []datastore.ImageRecord) error {
	var missing []string
	for i := range batch {
		id := batch[i].SourceID
		if id == "" {
			continue
		}
		if _, ok := cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	fetched, err := e.store.GetSourcesByIDs(missing)
	if err != nil {
		return err
	}
	for id, record := range fetched {
		cache[id] = record
	}
	// Remember misses too, so a source absent from the table is looked up
	// only once.
	for _, id := range missing {
		if _, ok := fetched[id]; !ok {
			cache[id] = datastore.SourceRecord{SourceID: id}
		}
	}
	return nil
}
