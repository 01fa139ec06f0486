// Package extractor invokes the external wallust binary to derive a color
// palette from an image, then reads the result back from wallust's cache
// directory. The binary is a black box: it is run against an image path and
// the freshest cache artifact written after invocation is taken as its
// output.
package extractor

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/errors"
	"github.com/tkivisto/wallshift/internal/logging"
)

const (
	defaultBinary  = "wallust"
	defaultTimeout = 30 * time.Second
	defaultWorkers = 3

	// resultTTL keeps freshly extracted palettes around long enough to
	// dedupe concurrent requests for the same image.
	resultTTL = 2 * time.Minute
)

// Result is one successful extraction: raw swatches plus the derived
// metrics used for filtering and scoring.
type Result struct {
	Swatches   []string
	Background string
	Foreground string
	Cursor     string
	Metrics    colors.Metrics
}

// Extractor runs the palette binary and parses its cache output.
type Extractor struct {
	binary   string
	args     []string
	cacheDir string
	timeout  time.Duration
	workers  int
	logger   *slog.Logger

	// results dedupes repeated extraction requests for the same path.
	results *gocache.Cache

	// runCommand is swappable for tests.
	runCommand func(ctx context.Context, binary string, args []string) error
}

// New creates an extractor from settings. Zero-valued settings fall back to
// wallust defaults, including wallust's own cache directory.
func New(settings *conf.ExtractorSettings) *Extractor {
	e := &Extractor{
		binary:   defaultBinary,
		args:     []string{"run"},
		timeout:  defaultTimeout,
		workers:  defaultWorkers,
		logger:   logging.ForService("extractor"),
		results:  gocache.New(resultTTL, 5*time.Minute),
	}
	if settings != nil {
		if settings.Binary != "" {
			e.binary = settings.Binary
		}
		if len(settings.Args) > 0 {
			e.args = settings.Args
		}
		if settings.CacheDir != "" {
			e.cacheDir = settings.CacheDir
		}
		if settings.Timeout > 0 {
			e.timeout = time.Duration(settings.Timeout) * time.Second
		}
		if settings.Workers > 0 {
			e.workers = settings.Workers
		}
	}
	if e.cacheDir == "" {
		e.cacheDir = defaultCacheDir()
	}
	e.runCommand = e.execCommand
	return e
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "wallust")
}

// Extract runs the binary against imagePath and returns the parsed palette.
// Repeated calls for the same path within the dedupe window return the
// cached result without re-invoking the binary.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (*Result, error) {
	if cached, found := e.results.Get(imagePath); found {
		if m := getMetrics(); m != nil {
			m.RecordCacheHit()
		}
		return cached.(*Result), nil
	}

	jobID := uuid.New().String()[:8]
	start := time.Now()
	e.logger.Debug("extracting palette", "job_id", jobID, "image", imagePath)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := append(append([]string{}, e.args...), imagePath)
	if err := e.runCommand(runCtx, e.binary, args); err != nil {
		category := errors.CategoryPalette
		status := "error"
		if runCtx.Err() == context.DeadlineExceeded {
			category = errors.CategoryTimeout
			status = "timeout"
		}
		if m := getMetrics(); m != nil {
			m.RecordExtraction(status, time.Since(start).Seconds())
		}
		return nil, errors.New(err).
			Component("extractor").
			Category(category).
			Context("binary", e.binary).
			FileContext(imagePath, 0).
			Build()
	}

	artifact, err := e.findFreshArtifact(start, imagePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(artifact)
	if err != nil {
		return nil, errors.New(err).
			Component("extractor").
			Category(errors.CategoryFileIO).
			FileContext(artifact, 0).
			Build()
	}

	raw, err := ParsePalette(data)
	if err != nil {
		return nil, errors.New(err).
			Component("extractor").
			Category(errors.CategoryPalette).
			FileContext(artifact, int64(len(data))).
			Build()
	}

	result := &Result{
		Swatches:   raw.Swatches,
		Background: raw.Background,
		Foreground: raw.Foreground,
		Cursor:     raw.Cursor,
		Metrics:    colors.ComputeMetrics(raw.Swatches),
	}
	e.results.Set(imagePath, result, gocache.DefaultExpiration)

	if m := getMetrics(); m != nil {
		m.RecordExtraction("success", time.Since(start).Seconds())
	}
	e.logger.Debug("extraction complete",
		"job_id", jobID,
		"image", imagePath,
		"swatches", len(result.Swatches),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (e *Extractor) execCommand(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.Newf("%s failed: %w: %s", binary, err, msg).
				Component("extractor").
				Category(errors.CategoryCommand).
				Build()
		}
		return err
	}
	return nil
}

// findFreshArtifact walks the cache directory and returns the entry wallust
// wrote for imagePath. Wallust names cache entries after the source image, so
// a fresh file whose name carries the image's stem is ours; concurrent
// workers each find their own even when several entries land in the same
// mtime window. Only when no name matches does the freshest entry overall
// win, for wallust configurations with hash-only cache names.
func (e *Extractor) findFreshArtifact(start time.Time, imagePath string) (string, error) {
	if e.cacheDir == "" {
		return "", errors.Newf("palette cache directory is not set").
			Component("extractor").
			Category(errors.CategoryConfiguration).
			Build()
	}

	// File mtimes can have coarser granularity than our start timestamp.
	cutoff := start.Add(-2 * time.Second)

	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	var newest, newestNamed string
	var newestMod, newestNamedMod time.Time
	err := filepath.WalkDir(e.cacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			return nil
		}
		if stem != "" && strings.Contains(d.Name(), stem) {
			if newestNamed == "" || info.ModTime().After(newestNamedMod) {
				newestNamed = path
				newestNamedMod = info.ModTime()
			}
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", errors.New(err).
			Component("extractor").
			Category(errors.CategoryFileIO).
			FileContext(e.cacheDir, 0).
			Build()
	}
	if newestNamed != "" {
		return newestNamed, nil
	}
	if newest == "" {
		return "", errors.Newf("no palette cache entry written after invocation").
			Component("extractor").
			Category(errors.CategoryPalette).
			Context("cache_dir", e.cacheDir).
			Build()
	}
	return newest, nil
}
