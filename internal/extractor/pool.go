package extractor

import (
	"context"
	"sync"
	"sync/atomic"
)

// BatchResult reports one image's outcome during bulk extraction.
type BatchResult struct {
	Filepath string
	Result   *Result
	Err      error
}

// BatchSummary aggregates a bulk extraction run.
type BatchSummary struct {
	Extracted int
	Failed    int
	Canceled  bool
}

// ExtractBatch runs extraction over many images with bounded concurrency.
// A failing image is reported and skipped, never aborting the batch; only
// context cancellation stops the run early. onResult, when non-nil, is
// called from worker goroutines and must be safe for concurrent use.
func (e *Extractor) ExtractBatch(ctx context.Context, imagePaths []string, onResult func(BatchResult)) BatchSummary {
	if len(imagePaths) == 0 {
		return BatchSummary{}
	}

	workers := e.workers
	if workers > len(imagePaths) {
		workers = len(imagePaths)
	}

	jobs := make(chan string)
	var extracted, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := e.Extract(ctx, path)
				if err != nil {
					failed.Add(1)
					if ctx.Err() == nil {
						e.logger.Warn("palette extraction failed", "image", path, "error", err)
					}
				} else {
					extracted.Add(1)
				}
				if onResult != nil {
					onResult(BatchResult{Filepath: path, Result: result, Err: err})
				}
			}
		}()
	}

	canceled := false
feed:
	for _, path := range imagePaths {
		select {
		case <-ctx.Done():
			canceled = true
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	summary := BatchSummary{
		Extracted: int(extracted.Load()),
		Failed:    int(failed.Load()),
		Canceled:  canceled,
	}
	e.logger.Info("bulk extraction finished",
		"total", len(imagePaths),
		"extracted", summary.Extracted,
		"failed", summary.Failed,
		"canceled", summary.Canceled)
	return summary
}
