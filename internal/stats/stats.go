// Package stats computes cached aggregate distributions over the indexed
// collection. The numbers inform weighting configuration and the preview
// surfaces; selection itself never depends on them.
package stats

import (
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/logging"
)

const (
	cacheKey        = "collection-stats"
	defaultCacheTTL = 5 * time.Minute

	// Freshness windows for the shown-recency distribution.
	freshWindow  = 7 * 24 * time.Hour
	recentWindow = 30 * 24 * time.Hour

	// gapThreshold flags a bucket as a coverage gap when it holds less
	// than this share of palette-bearing images.
	gapThreshold = 0.05
)

// Lightness and saturation bucket bounds. Bounds are the inner edges; the
// outer buckets are open toward 0 and the metric maximum.
var (
	lightnessBounds  = []float64{0.2, 0.4, 0.6, 0.8}
	lightnessLabels  = []string{"very dark", "dark", "medium", "light", "very light"}
	saturationBounds = []float64{0.25, 0.6}
	saturationLabels = []string{"muted", "moderate", "vibrant"}
	hueLabels        = []string{"red", "orange", "yellow", "green", "cyan", "blue", "purple", "magenta"}
)

// Bucket is one labeled slot of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the full cached statistics snapshot.
type Summary struct {
	TotalImages     int64 `json:"total_images"`
	TotalSources    int64 `json:"total_sources"`
	ImagesWithColor int64 `json:"images_with_palettes"`
	ShownImages     int64 `json:"shown_images"`
	TotalShows      int64 `json:"total_shows"`

	Lightness  []Bucket `json:"lightness"`
	Hue        []Bucket `json:"hue"`
	Saturation []Bucket `json:"saturation"`

	Freshness datastore.FreshnessCounts `json:"freshness"`

	// Gaps lists distribution buckets with little or no coverage,
	// e.g. "lightness: very dark".
	Gaps []string `json:"gaps"`

	ComputedAt time.Time `json:"computed_at"`
}

// PaletteCoverage is the fraction of images with extracted palettes.
func (s *Summary) PaletteCoverage() float64 {
	if s.TotalImages == 0 {
		return 0
	}
	return float64(s.ImagesWithColor) / float64(s.TotalImages)
}

// Collector computes and caches collection statistics.
type Collector struct {
	store  datastore.Interface
	cache  *gocache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewCollector creates a collector with the default cache TTL.
func NewCollector(store datastore.Interface) *Collector {
	return &Collector{
		store:  store,
		cache:  gocache.New(defaultCacheTTL, 10*time.Minute),
		logger: logging.ForService("stats"),
		now:    time.Now,
	}
}

// Summary returns the cached snapshot, recomputing it when stale.
func (c *Collector) Summary() (*Summary, error) {
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Summary), nil
	}

	summary, err := c.compute()
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey, summary, gocache.DefaultExpiration)
	return summary, nil
}

// Invalidate drops the cached snapshot. Called after shown-events and
// index runs so the next read reflects current state.
func (c *Collector) Invalidate() {
	c.cache.Flush()
}

func (c *Collector) compute() (*Summary, error) {
	start := c.now()
	summary := &Summary{ComputedAt: start}

	var err error
	if summary.TotalImages, err = c.store.CountImages(); err != nil {
		return nil, err
	}
	if summary.TotalSources, err = c.store.CountSources(); err != nil {
		return nil, err
	}
	if summary.ImagesWithColor, err = c.store.CountImagesWithPalettes(); err != nil {
		return nil, err
	}
	if summary.ShownImages, err = c.store.CountShownImages(); err != nil {
		return nil, err
	}
	if summary.TotalShows, err = c.store.SumTimesShown(); err != nil {
		return nil, err
	}

	lightness, err := c.store.CountByLightnessBuckets(lightnessBounds)
	if err != nil {
		return nil, err
	}
	summary.Lightness = labelBuckets(lightnessLabels, lightness)

	hue, err := c.store.CountByHueBuckets(len(hueLabels))
	if err != nil {
		return nil, err
	}
	summary.Hue = labelBuckets(hueLabels, hue)

	saturation, err := c.store.CountBySaturationBuckets(saturationBounds)
	if err != nil {
		return nil, err
	}
	summary.Saturation = labelBuckets(saturationLabels, saturation)

	summary.Freshness, err = c.store.CountByFreshness(start, freshWindow, recentWindow)
	if err != nil {
		return nil, err
	}

	summary.Gaps = detectGaps(summary)

	c.logger.Debug("statistics recomputed",
		"images", summary.TotalImages,
		"with_palettes", summary.ImagesWithColor,
		"gaps", len(summary.Gaps),
		"duration_ms", time.Since(start).Milliseconds())
	return summary, nil
}

func labelBuckets(labels []string, counts []int) []Bucket {
	buckets := make([]Bucket, len(labels))
	for i, label := range labels {
		count := 0
		if i < len(counts) {
			count = counts[i]
		}
		buckets[i] = Bucket{Label: label, Count: count}
	}
	return buckets
}

// detectGaps flags buckets covering less than gapThreshold of the
// palette-bearing images. With no palettes at all there is nothing to
// evaluate and no gaps are reported.
func detectGaps(summary *Summary) []string {
	total := summary.ImagesWithColor
	if total == 0 {
		return nil
	}

	var gaps []string
	check := func(dimension string, buckets []Bucket) {
		for _, bucket := range buckets {
			if float64(bucket.Count)/float64(total) < gapThreshold {
				gaps = append(gaps, fmt.Sprintf("%s: %s", dimension, bucket.Label))
			}
		}
	}
	check("lightness", summary.Lightness)
	check("hue", summary.Hue)
	check("saturation", summary.Saturation)
	return gaps
}
