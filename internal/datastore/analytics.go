// analytics.go: aggregate queries backing collection statistics. Bucket
// boundaries are supplied by the caller so the statistics package is the
// single owner of the bucketing scheme.
package datastore

import (
	"time"
)

// CountImages returns the number of indexed images.
func (ds *DataStore) CountImages() (int64, error) {
	defer ds.lock()()
	var count int64
	if err := ds.DB.Model(&ImageRecord{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_images")
	}
	return count, nil
}

// CountSources returns the number of known sources.
func (ds *DataStore) CountSources() (int64, error) {
	defer ds.lock()()
	var count int64
	if err := ds.DB.Model(&SourceRecord{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_sources")
	}
	return count, nil
}

// CountImagesWithPalettes returns how many images have an extracted palette.
func (ds *DataStore) CountImagesWithPalettes() (int64, error) {
	defer ds.lock()()
	var count int64
	if err := ds.DB.Model(&PaletteRecord{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_images_with_palettes")
	}
	return count, nil
}

// CountShownImages returns how many images have been shown at least once.
func (ds *DataStore) CountShownImages() (int64, error) {
	defer ds.lock()()
	var count int64
	if err := ds.DB.Model(&ImageRecord{}).Where("times_shown > 0").Count(&count).Error; err != nil {
		return 0, dbError(err, "count_shown_images")
	}
	return count, nil
}

// SumTimesShown returns the total number of shown events across the index.
func (ds *DataStore) SumTimesShown() (int64, error) {
	defer ds.lock()()
	var total *int64
	if err := ds.DB.Model(&ImageRecord{}).Select("SUM(times_shown)").Scan(&total).Error; err != nil {
		return 0, dbError(err, "sum_times_shown")
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// CountByLightnessBuckets counts palettes per lightness bucket. The bounds
// slice holds the inner boundaries; n bounds produce n+1 buckets. The last
// bucket is inclusive of 1.0.
func (ds *DataStore) CountByLightnessBuckets(bounds []float64) ([]int, error) {
	return ds.countByRangeBuckets("avg_lightness", bounds, 1.0)
}

// CountBySaturationBuckets counts palettes per saturation bucket.
func (ds *DataStore) CountBySaturationBuckets(bounds []float64) ([]int, error) {
	return ds.countByRangeBuckets("avg_saturation", bounds, 1.0)
}

// CountByHueBuckets counts palettes per equal-width hue bucket over the
// [0, 360) circle.
func (ds *DataStore) CountByHueBuckets(bucketCount int) ([]int, error) {
	if bucketCount <= 0 {
		return nil, nil
	}
	defer ds.lock()()

	counts := make([]int, bucketCount)
	width := 360.0 / float64(bucketCount)
	for i := range bucketCount {
		low := float64(i) * width
		high := low + width
		var count int64
		err := ds.DB.Model(&PaletteRecord{}).
			Where("avg_hue >= ? AND avg_hue < ?", low, high).
			Count(&count).Error
		if err != nil {
			return nil, dbError(err, "count_by_hue_buckets", "bucket", i)
		}
		counts[i] = int(count)
	}
	return counts, nil
}

func (ds *DataStore) countByRangeBuckets(column string, bounds []float64, maxValue float64) ([]int, error) {
	defer ds.lock()()

	edges := make([]float64, 0, len(bounds)+2)
	edges = append(edges, 0)
	edges = append(edges, bounds...)
	edges = append(edges, maxValue)

	counts := make([]int, len(edges)-1)
	for i := range counts {
		var count int64
		query := ds.DB.Model(&PaletteRecord{})
		if i == len(counts)-1 {
			query = query.Where(column+" >= ? AND "+column+" <= ?", edges[i], edges[i+1])
		} else {
			query = query.Where(column+" >= ? AND "+column+" < ?", edges[i], edges[i+1])
		}
		if err := query.Count(&count).Error; err != nil {
			return nil, dbError(err, "count_by_range_buckets", "column", column)
		}
		counts[i] = int(count)
	}
	return counts, nil
}

// CountByFreshness buckets images by how recently they were shown relative to
// now. freshWindow must be shorter than recentWindow.
func (ds *DataStore) CountByFreshness(now time.Time, freshWindow, recentWindow time.Duration) (FreshnessCounts, error) {
	defer ds.lock()()

	var counts FreshnessCounts
	freshEdge := now.Add(-freshWindow)
	recentEdge := now.Add(-recentWindow)

	type bucketQuery struct {
		dest  *int
		where string
		args  []any
	}
	queries := []bucketQuery{
		{&counts.NeverShown, "last_shown_at IS NULL", nil},
		{&counts.Fresh, "last_shown_at >= ?", []any{freshEdge}},
		{&counts.Recent, "last_shown_at >= ? AND last_shown_at < ?", []any{recentEdge, freshEdge}},
		{&counts.Stale, "last_shown_at IS NOT NULL AND last_shown_at < ?", []any{recentEdge}},
	}
	for _, q := range queries {
		var count int64
		if err := ds.DB.Model(&ImageRecord{}).Where(q.where, q.args...).Count(&count).Error; err != nil {
			return FreshnessCounts{}, dbError(err, "count_by_freshness")
		}
		*q.dest = int(count)
	}
	return counts, nil
}
