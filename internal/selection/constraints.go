// constraints.go: caller-supplied selection constraints and their mapping to
// the internal candidate query shape.
package selection

import (
	"github.com/tkivisto/wallshift/internal/colors"
)

// Constraints narrows a selection. All fields are optional; the zero value
// means "no filter". Constraints are ephemeral and never persisted.
type Constraints struct {
	MinWidth       int
	MinHeight      int
	MinAspectRatio float64
	MaxAspectRatio float64
	FavoritesOnly  bool
	Sources        []string // allow-list of source ids

	// TargetPalette activates hard color filtering and soft color scoring.
	TargetPalette *colors.Palette
	// MinColorSimilarity applies when TargetPalette is set. Zero means use
	// the configured default.
	MinColorSimilarity float64
	// ColorWeight overrides the configured color affinity weight when
	// positive, e.g. for palette-continuity selection.
	ColorWeight float64

	ExcludeFilepaths []string
}

// colorSimilarityThreshold resolves the active similarity threshold.
func (c *Constraints) colorSimilarityThreshold(configDefault float64) float64 {
	if c.MinColorSimilarity > 0 {
		return c.MinColorSimilarity
	}
	return configDefault
}

// CandidateQuery is the normalized filter the candidate provider
// resolves against storage.
type CandidateQuery struct {
	SourceType    string
	SourceID      string
	Sources       []string
	MinWidth      int
	MinHeight     int
	FavoritesOnly bool
	Exclude       map[string]struct{}
}

// QueryFromConstraints maps caller-facing constraints onto the internal query
// shape. A nil constraints object yields the unfiltered query.
func QueryFromConstraints(c *Constraints) CandidateQuery {
	if c == nil {
		return CandidateQuery{}
	}
	query := CandidateQuery{
		Sources:       c.Sources,
		MinWidth:      c.MinWidth,
		MinHeight:     c.MinHeight,
		FavoritesOnly: c.FavoritesOnly,
	}
	if len(c.Sources) == 1 {
		query.SourceID = c.Sources[0]
		query.Sources = nil
	}
	if len(c.ExcludeFilepaths) > 0 {
		query.Exclude = make(map[string]struct{}, len(c.ExcludeFilepaths))
		for _, path := range c.ExcludeFilepaths {
			query.Exclude[path] = struct{}{}
		}
	}
	return query
}
