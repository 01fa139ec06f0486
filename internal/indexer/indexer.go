// Package indexer converts directory trees into image records, detecting
// new, changed and vanished files against the persisted index.
package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/errors"
	"github.com/tkivisto/wallshift/internal/logging"
)

const defaultBatchSize = 200

// ProgressFunc reports incremental progress. total is known up front from a
// counting pre-scan.
type ProgressFunc func(processed, total int, message string)

// IncrementalResult summarizes one incremental index run.
type IncrementalResult struct {
	New       int
	Changed   int
	Unchanged int
	Removed   int
	Failed    int
}

// Indexed is the total of records written this run.
func (r *IncrementalResult) Indexed() int {
	return r.New + r.Changed
}

// Indexer writes image metadata into the store.
type Indexer struct {
	store        datastore.Interface
	favoritesDir string
	logger       *slog.Logger

	// OnImagesIndexed fires after each flushed batch with the batch's
	// filepaths. Failures are logged and ignored.
	OnImagesIndexed func(paths []string) error
}

// New creates an indexer. favoritesDir marks images under it as favorites;
// empty disables favorite detection.
func New(store datastore.Interface, favoritesDir string) *Indexer {
	return &Indexer{
		store:        store,
		favoritesDir: favoritesDir,
		logger:       logging.ForService("indexer"),
	}
}

// SourceIDForPath derives the source id from the parent directory basename.
func SourceIDForPath(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// InferSourceType classifies a source id as remote, favorites or local.
func InferSourceType(sourceID string) string {
	id := strings.ToLower(sourceID)
	if id == "favorites" || id == "favourites" {
		return datastore.SourceTypeFavorites
	}
	remoteNames := []string{"wallhaven", "unsplash", "reddit", "bing", "apod", "remote", "api", "http"}
	for _, name := range remoteNames {
		if id == name || strings.HasPrefix(id, name+"-") || strings.HasPrefix(id, name+"_") {
			return datastore.SourceTypeRemote
		}
	}
	return datastore.SourceTypeLocal
}

func (ix *Indexer) isFavorite(path string) bool {
	if ix.favoritesDir == "" {
		return false
	}
	rel, err := filepath.Rel(ix.favoritesDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IndexImage builds a record for one file, reading only the image header.
// Unreadable or corrupt files yield nil without error; the caller logs and
// moves on.
func (ix *Indexer) IndexImage(path string, info fs.FileInfo) *datastore.ImageRecord {
	width, height, err := probeDimensions(path)
	if err != nil {
		ix.logger.Warn("skipping unreadable image", "path", path, "error", err)
		return nil
	}

	aspectRatio := 0.0
	if height > 0 {
		aspectRatio = float64(width) / float64(height)
	}

	now := time.Now()
	return &datastore.ImageRecord{
		Filepath:       path,
		Filename:       filepath.Base(path),
		SourceID:       SourceIDForPath(path),
		Width:          width,
		Height:         height,
		AspectRatio:    aspectRatio,
		FileSize:       info.Size(),
		FileMtime:      info.ModTime().Unix(),
		IsFavorite:     ix.isFavorite(path),
		FirstIndexedAt: now,
		LastIndexedAt:  now,
	}
}

// IndexDirectory indexes dir, skipping files whose persisted mtime matches
// the filesystem. Returns the number of records written.
func (ix *Indexer) IndexDirectory(ctx context.Context, dir string, recursive bool, batchSize int) (int, error) {
	result, err := ix.IndexDirectoryIncremental(ctx, dir, recursive, batchSize, nil)
	if err != nil {
		return 0, err
	}
	return result.Indexed(), nil
}

// IndexDirectoryIncremental streams the directory scan against an up-front
// mtime map of the already-indexed subtree. New and changed files are
// re-indexed in batches; indexed files absent from disk are batch-deleted
// afterwards. progress, when non-nil, is called per discovered file with a
// total known from a counting pre-scan.
func (ix *Indexer) IndexDirectoryIncremental(ctx context.Context, dir string, recursive bool, batchSize int, progress ProgressFunc) (*IncrementalResult, error) {
	start := time.Now()
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	// Counting pre-scan validates the root and gives accurate totals.
	total, err := countImages(dir, recursive)
	if err != nil {
		if m := getMetrics(); m != nil {
			m.RecordRun("incremental", "error", time.Since(start).Seconds())
		}
		return nil, err
	}

	known, err := ix.store.GetImageMtimes(dir + string(filepath.Separator))
	if err != nil {
		return nil, err
	}

	result := &IncrementalResult{}
	seen := make(map[string]struct{}, len(known))
	batch := make([]datastore.ImageRecord, 0, batchSize)
	newSources := make(map[string]struct{})
	processed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := ix.store.BatchUpsertImages(batch, batchSize); err != nil {
			return err
		}
		ix.fireIndexedHook(batch)
		batch = batch[:0]
		return nil
	}

	scanErr := streamScan(dir, recursive, func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		processed++
		if progress != nil {
			progress(processed, total, filepath.Base(path))
		}
		seen[path] = struct{}{}

		mtime, indexed := known[path]
		if indexed && mtime == info.ModTime().Unix() {
			result.Unchanged++
			return nil
		}

		record := ix.IndexImage(path, info)
		if record == nil {
			result.Failed++
			if m := getMetrics(); m != nil {
				m.RecordDecodeError()
			}
			return nil
		}

		if indexed {
			result.Changed++
		} else {
			result.New++
		}
		newSources[record.SourceID] = struct{}{}
		batch = append(batch, *record)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if scanErr != nil {
		// Partial work is kept; counts reflect what was committed.
		if ctx.Err() != nil {
			if flushErr := flush(); flushErr != nil {
				ix.logger.Warn("final flush failed after cancellation", "error", flushErr)
			}
			if m := getMetrics(); m != nil {
				m.RecordRun("incremental", "canceled", time.Since(start).Seconds())
			}
			return result, errors.New(scanErr).
				Component("indexer").
				Category(errors.CategoryCancellation).
				Context("directory", dir).
				Build()
		}
		if m := getMetrics(); m != nil {
			m.RecordRun("incremental", "error", time.Since(start).Seconds())
		}
		return nil, scanErr
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if err := ix.ensureSources(newSources); err != nil {
		return nil, err
	}

	// Indexed entries whose files vanished from disk.
	var vanished []string
	for path := range known {
		if _, ok := seen[path]; !ok {
			vanished = append(vanished, path)
		}
	}
	if len(vanished) > 0 {
		removed, err := ix.store.BatchDeleteImages(vanished, batchSize)
		if err != nil {
			return nil, err
		}
		result.Removed = removed
		if m := getMetrics(); m != nil {
			m.RecordRemoved(removed)
		}
	}

	if m := getMetrics(); m != nil {
		m.RecordRun("incremental", "success", time.Since(start).Seconds())
		m.RecordIndexed("new", result.New)
		m.RecordIndexed("changed", result.Changed)
	}
	ix.logger.Info("index run complete",
		"directory", dir,
		"new", result.New,
		"changed", result.Changed,
		"unchanged", result.Unchanged,
		"removed", result.Removed,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (ix *Indexer) fireIndexedHook(batch []datastore.ImageRecord) {
	if ix.OnImagesIndexed == nil {
		return
	}
	paths := make([]string, len(batch))
	for i := range batch {
		paths[i] = batch[i].Filepath
	}
	if err := ix.OnImagesIndexed(paths); err != nil {
		ix.logger.Warn("indexed-batch hook failed", "count", len(paths), "error", err)
	}
}

// ensureSources upserts source records for every source touched this run.
func (ix *Indexer) ensureSources(sourceIDs map[string]struct{}) error {
	for sourceID := range sourceIDs {
		record := &datastore.SourceRecord{
			SourceID:   sourceID,
			SourceType: InferSourceType(sourceID),
		}
		if err := ix.store.UpsertSource(record); err != nil {
			return err
		}
	}
	return nil
}
