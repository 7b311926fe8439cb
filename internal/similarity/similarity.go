// Package similarity scores canonical keys against each other and finds the
// best-scoring candidate for a query key.
package similarity

import (
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
)

// Scorer returns a similarity score in [0, 100] where 100 means identical.
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 {
	return f(a, b)
}

// Ratio is the indel ratio used by common fuzzy-string libraries:
// 100 * (1 - d / (len(a) + len(b))) where d is the edit distance with
// insertions and deletions costing 1 and substitutions costing 2. This equals
// twice the matched-character count over the total length.
type Ratio struct {
	metric *metrics.Levenshtein
}

// NewRatio creates the default scorer.
func NewRatio() *Ratio {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = true
	m.InsertCost = 1
	m.DeleteCost = 1
	m.ReplaceCost = 2

	return &Ratio{metric: m}
}

func (r *Ratio) Score(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 100
	}

	distance := r.metric.Distance(a, b)
	return 100 * (1 - float64(distance)/float64(total))
}

// Levenshtein scores 100 * (1 - d / max(len(a), len(b))) with unit costs.
type Levenshtein struct{}

func (Levenshtein) Score(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 100
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(distance)/float64(maxLen))
}

// JaroWinkler scores with the Jaro-Winkler metric scaled to [0, 100].
type JaroWinkler struct {
	metric *metrics.JaroWinkler
}

func NewJaroWinkler() *JaroWinkler {
	m := metrics.NewJaroWinkler()
	m.CaseSensitive = true

	return &JaroWinkler{metric: m}
}

func (j *JaroWinkler) Score(a, b string) float64 {
	if a == b {
		return 100
	}
	return 100 * strutil.Similarity(a, b, j.metric)
}

// Scorer names accepted by ParseScorer.
const (
	ScorerRatio       = "ratio"
	ScorerLevenshtein = "levenshtein"
	ScorerJaroWinkler = "jaro-winkler"
)

// ParseScorer returns the scorer registered under name. An empty name
// selects Ratio.
func ParseScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerRatio:
		return NewRatio(), nil
	case ScorerLevenshtein:
		return Levenshtein{}, nil
	case ScorerJaroWinkler, "jarowinkler":
		return NewJaroWinkler(), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (supported: %s, %s, %s)", name, ScorerRatio, ScorerLevenshtein, ScorerJaroWinkler)
	}
}
