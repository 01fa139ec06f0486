// engine.go: weight computation over a candidate set and weighted sampling
// without replacement via exponential-key (A-ES) reservoir sampling.
package selection

import (
	"container/heap"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/tkivisto/wallshift/internal/colors"
	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/logging"
	"github.com/tkivisto/wallshift/internal/timeofday"
)

// TimeTargetProvider supplies the current time-of-day palette target. The
// engine tolerates any failure in the provider, including panics, and
// proceeds without a target.
type TimeTargetProvider interface {
	CurrentTarget(now time.Time) (timeofday.Target, bool)
	Tolerance() float64
	Strength() float64
}

// ScoredCandidate is one candidate with its computed weight, for the preview
// and debugging surfaces.
type ScoredCandidate struct {
	Image     datastore.ImageRecord
	Weight    float64
	Breakdown WeightBreakdown
}

// Engine computes weights and samples candidates. Stateless per call; the
// state of a selection is entirely the candidate list and weights.
type Engine struct {
	cfg        conf.SelectionConfig
	store      datastore.Interface
	timeTarget TimeTargetProvider // nil when time adaptation is off
	logger     *slog.Logger

	// statFunc is swappable for tests; defaults to os.Stat.
	statFunc func(string) (os.FileInfo, error)

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates a selection engine. timeTarget may be nil.
func NewEngine(cfg conf.SelectionConfig, store datastore.Interface, timeTarget TimeTargetProvider) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		timeTarget: timeTarget,
		logger:     logging.ForService("selection"),
		statFunc:   os.Stat,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Config returns the engine's selection config snapshot.
func (e *Engine) Config() conf.SelectionConfig {
	return e.cfg
}

func (e *Engine) random() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) perm(n int) []int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Perm(n)
}

// Select picks count candidates without replacement, proportional to their
// weights. Empty input or count <= 0 yields an empty result; count beyond the
// candidate set returns every candidate. With weighting disabled, or when the
// total weight collapses to zero, selection falls back to uniform sampling.
func (e *Engine) Select(candidates []datastore.ImageRecord, count int, constraints *Constraints) ([]datastore.ImageRecord, error) {
	if len(candidates) == 0 || count <= 0 {
		return nil, nil
	}
	if count > len(candidates) {
		count = len(candidates)
	}

	start := time.Now()
	if !e.cfg.Enabled {
		result := e.uniformSample(candidates, count)
		if m := getMetrics(); m != nil {
			m.RecordSelection("uniform", "success", time.Since(start).Seconds(), len(candidates))
		}
		return result, nil
	}

	weights, _, err := e.computeWeights(candidates, constraints)
	if err != nil {
		if m := getMetrics(); m != nil {
			m.RecordSelection("weighted", "error", time.Since(start).Seconds(), len(candidates))
		}
		return nil, err
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		if m := getMetrics(); m != nil {
			m.RecordUniformFallback()
			m.RecordSelection("uniform", "success", time.Since(start).Seconds(), len(candidates))
		}
		return e.uniformSample(candidates, count), nil
	}

	var indexes []int
	if count == 1 {
		// The common single-wallpaper pick needs no reservoir; one draw
		// against the cumulative distribution is equivalent.
		if i := PickByCumulativeWeight(weights, e.random()*total); i >= 0 {
			indexes = []int{i}
		}
	} else {
		indexes = e.sampleWithoutReplacement(weights, count)
	}
	result := make([]datastore.ImageRecord, 0, len(indexes))
	for _, i := range indexes {
		result = append(result, candidates[i])
	}
	if m := getMetrics(); m != nil {
		m.RecordSelection("weighted", "success", time.Since(start).Seconds(), len(candidates))
	}
	return result, nil
}

// ScoreCandidates runs the same weighting pipeline as Select but returns
// every candidate with its weight and factor breakdown, sorted by weight
// descending. Used for preview and debugging, never for actual selection.
func (e *Engine) ScoreCandidates(candidates []datastore.ImageRecord, constraints *Constraints) ([]ScoredCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	weights, breakdowns, err := e.computeWeights(candidates, constraints)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredCandidate, len(candidates))
	for i, candidate := range candidates {
		scored[i] = ScoredCandidate{Image: candidate, Weight: weights[i], Breakdown: breakdowns[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Weight > scored[j].Weight
	})
	return scored, nil
}

// computeWeights batch-loads source records for all distinct sources among
// the candidates, batch-loads palettes only when color or time scoring needs
// them, then computes each candidate's weight.
func (e *Engine) computeWeights(candidates []datastore.ImageRecord, constraints *Constraints) ([]float64, []WeightBreakdown, error) {
	now := time.Now()

	sources, err := e.loadSources(candidates)
	if err != nil {
		return nil, nil, err
	}

	target, timeTarget := e.resolveTargets(constraints, now)

	var palettes map[string]datastore.PaletteRecord
	if target != nil || timeTarget != nil {
		filepaths := make([]string, len(candidates))
		for i, candidate := range candidates {
			filepaths[i] = candidate.Filepath
		}
		palettes, err = e.store.GetPalettesByFilepaths(filepaths)
		if err != nil {
			return nil, nil, err
		}
	}

	colorWeight := e.cfg.ColorWeight
	if constraints != nil && constraints.ColorWeight > 0 {
		colorWeight = constraints.ColorWeight
	}
	tolerance, strength := e.timeParams()

	weights := make([]float64, len(candidates))
	breakdowns := make([]WeightBreakdown, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]

		var sourceLastShown *time.Time
		if source, ok := sources[candidate.SourceID]; ok {
			sourceLastShown = source.LastShownAt
		}

		var palette *colors.Palette
		if record, ok := palettes[candidate.Filepath]; ok {
			palette = PaletteFromRecord(&record)
		}

		weights[i], breakdowns[i] = CalculateWeight(&e.cfg, &WeightInputs{
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
	}
	return weights, breakdowns, nil
}

func (e *Engine) loadSources(candidates []datastore.ImageRecord) (map[string]datastore.SourceRecord, error) {
	distinct := make(map[string]struct{})
	for i := range candidates {
		if candidates[i].SourceID != "" {
			distinct[candidates[i].SourceID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(distinct))
	for id := range distinct {
		ids = append(ids, id)
	}
	return e.store.GetSourcesByIDs(ids)
}

// resolveTargets determines the color target (from constraints) and the
// time-of-day target. A panicking or failing time provider is treated as
// "no target" rather than aborting selection.
func (e *Engine) resolveTargets(constraints *Constraints, now time.Time) (colorTarget *colors.Palette, timeTarget *timeofday.Target) {
	if constraints != nil {
		colorTarget = constraints.TargetPalette
	}

	if e.timeTarget == nil {
		return colorTarget, nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("time target provider panicked, selecting without time target", "panic", r)
			timeTarget = nil
		}
	}()
	if target, ok := e.timeTarget.CurrentTarget(now); ok {
		timeTarget = &target
	}
	return colorTarget, timeTarget
}

func (e *Engine) timeParams() (tolerance, strength float64) {
	if e.timeTarget == nil {
		return 0, 0
	}
	return e.timeTarget.Tolerance(), e.timeTarget.Strength()
}

// keyHeap is a min-heap over exponential keys, holding the k candidates with
// the largest keys seen so far.
type keyHeap []keyedIndex

type keyedIndex struct {
	key   float64
	index int
}

func (h keyHeap) Len() int            { return len(h) }
func (h keyHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h keyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x any)         { *h = append(*h, x.(keyedIndex)) }
func (h *keyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// sampleWithoutReplacement implements A-ES reservoir sampling: each candidate
// draws key ln(u)/w and the k largest keys win. Non-positive weights get a
// -Inf key, guaranteeing exclusion while other candidates remain correctly
// weighted. O(n + k log k) time, O(k) space.
func (e *Engine) sampleWithoutReplacement(weights []float64, count int) []int {
	reservoir := make(keyHeap, 0, count)
	heap.Init(&reservoir)

	for i, w := range weights {
		key := math.Inf(-1)
		if w > 0 {
			u := e.random()
			if u > 0 {
				key = math.Log(u) / w
			}
		}

		if len(reservoir) < count {
			heap.Push(&reservoir, keyedIndex{key: key, index: i})
			continue
		}
		if key > reservoir[0].key {
			reservoir[0] = keyedIndex{key: key, index: i}
			heap.Fix(&reservoir, 0)
		}
	}

	indexes := make([]int, 0, len(reservoir))
	for _, entry := range reservoir {
		if !math.IsInf(entry.key, -1) {
			indexes = append(indexes, entry.index)
		}
	}
	return indexes
}

// uniformSample draws count candidates uniformly without replacement.
func (e *Engine) uniformSample(candidates []datastore.ImageRecord, count int) []datastore.ImageRecord {
	perm := e.perm(len(candidates))
	result := make([]datastore.ImageRecord, 0, count)
	for _, i := range perm[:count] {
		result = append(result, candidates[i])
	}
	return result
}

// PickByCumulativeWeight selects the index whose cumulative weight interval
// contains draw. Used by single-pick paths that walk a running sum instead of
// building a reservoir. A draw at or beyond the total, including one pushed
// past it by floating-point summation drift, selects the last positive-weight
// item rather than falling off the end.
func PickByCumulativeWeight(weights []float64, draw float64) int {
	last := -1
	var cumulative float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if draw < cumulative {
			return i
		}
	}
	return last
}
