// watcher.go: filesystem watching with debounced re-index. Bursts of file
// events (a download finishing, a batch copy) collapse into one incremental
// index run per directory.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tkivisto/wallshift/internal/debounce"
	"github.com/tkivisto/wallshift/internal/errors"
	"github.com/tkivisto/wallshift/internal/logging"
)

// Watcher re-indexes watched directories when their contents change.
type Watcher struct {
	indexer   *Indexer
	watcher   *fsnotify.Watcher
	debouncer *debounce.Debouncer
	dirs      []string
	recursive bool
	batchSize int
	logger    *slog.Logger

	// OnIndexed fires after each debounced re-index with its result.
	OnIndexed func(dir string, result *IncrementalResult)
}

// NewWatcher creates a watcher over dirs. delay is the debounce window
// between the last file event and the re-index.
func NewWatcher(ix *Indexer, dirs []string, recursive bool, batchSize int, delay time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(err).
			Component("indexer").
			Category(errors.CategoryFileIO).
			Context("operation", "create_watcher").
			Build()
	}

	w := &Watcher{
		indexer:   ix,
		watcher:   fsWatcher,
		debouncer: debounce.New(delay),
		dirs:      dirs,
		recursive: recursive,
		batchSize: batchSize,
		logger:    logging.ForService("indexer"),
	}
	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return nil, errors.New(err).
				Component("indexer").
				Category(errors.CategoryFileIO).
				Context("directory", dir).
				Build()
		}
	}
	return w, nil
}

// Run processes events until the context is canceled or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !IsImageFile(event.Name) && event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	dir := w.owningDir(event.Name)
	if dir == "" {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "path", event.Name)
	w.debouncer.Trigger(dir, func() {
		result, err := w.indexer.IndexDirectoryIncremental(ctx, dir, w.recursive, w.batchSize, nil)
		if err != nil {
			w.logger.Warn("debounced re-index failed", "directory", dir, "error", err)
			return
		}
		if w.OnIndexed != nil {
			w.OnIndexed(dir, result)
		}
	})
}

// owningDir maps an event path back to the watched root containing it.
func (w *Watcher) owningDir(path string) string {
	for _, dir := range w.dirs {
		if path == dir || hasPathPrefix(path, dir) {
			return dir
		}
	}
	return ""
}

func hasPathPrefix(path, dir string) bool {
	if len(path) <= len(dir) {
		return false
	}
	return path[:len(dir)] == dir && (path[len(dir)] == '/' || path[len(dir)] == '\\')
}

// Close stops the watcher and cancels pending re-index timers. Safe to call
// more than once.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.watcher.Close()
}
