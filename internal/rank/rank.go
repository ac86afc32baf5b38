package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/hyperifyio/leadscout/internal/normalize"
	"github.com/hyperifyio/leadscout/internal/search"
)

const (
	// DefaultMinScore drops near-zero noise. Zero disables the floor.
	DefaultMinScore = 1.0
	// DefaultCap bounds a response regardless of the requested MaxResults.
	DefaultCap = search.MaxMaxResults
	// DefaultTitleBonus is the share of the keyword weight granted again for
	// keyword hits in the title.
	DefaultTitleBonus = 0.10

	maxScore = 100.0
)

// Scorer assigns a result a score in [0,100] for a query. Implementations
// must be pure: identical inputs always yield identical scores.
type Scorer interface {
	Score(r search.Result, q search.Query) float64
}

// Weights are the maximum points each component contributes.
type Weights struct {
	Keyword  float64
	Location float64
	Prior    float64
}

// DefaultWeights keep the platform prior small enough that it only breaks
// near-ties between otherwise similar postings.
var DefaultWeights = Weights{Keyword: 70, Location: 25, Prior: 5}

// DefaultPriors are per-platform priors in [0,1], scaled by Weights.Prior.
var DefaultPriors = map[search.PlatformID]float64{
	search.LinkedIn:  1.0,
	search.Facebook:  0.6,
	search.Instagram: 0.4,
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "for": {}, "in": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "to": {}, "with": {}, "near": {},
}

// WeightedScorer combines keyword overlap, location match and a platform prior.
type WeightedScorer struct {
	Weights    Weights
	TitleBonus float64
	Priors     map[search.PlatformID]float64
}

// NewScorer returns a WeightedScorer with the default tuning.
func NewScorer() *WeightedScorer {
	return &WeightedScorer{Weights: DefaultWeights, TitleBonus: DefaultTitleBonus, Priors: DefaultPriors}
}

// Score implements Scorer.
func (s *WeightedScorer) Score(r search.Result, q search.Query) float64 {
	titleTerms := termSet(r.Title)
	bodyTerms := termSet(r.Title + " " + r.Snippet)

	var total float64
	if kw := terms(q.Keywords); len(kw) > 0 {
		var hits, titleHits int
		for _, t := range kw {
			if _, ok := bodyTerms[t]; ok {
				hits++
			}
			if _, ok := titleTerms[t]; ok {
				titleHits++
			}
		}
		n := float64(len(kw))
		total += s.Weights.Keyword * float64(hits) / n
		total += s.Weights.Keyword * clampUnit(s.TitleBonus) * float64(titleHits) / n
	}
	total += s.Weights.Location * locationMatch(r, q.Location, bodyTerms)
	total += s.Weights.Prior * clampUnit(s.Priors[r.Platform])
	return round2(clamp(total, 0, maxScore))
}

// locationMatch is 1 for a full phrase match, otherwise the share of
// location terms present in the posting.
func locationMatch(r search.Result, location string, body map[string]struct{}) float64 {
	loc := terms(location)
	if len(loc) == 0 {
		return 0
	}
	phrase := normalize.Fold(location)
	text := " " + normalize.Fold(r.Title+" "+r.Snippet) + " "
	if phrase != "" && strings.Contains(text, " "+phrase+" ") {
		return 1
	}
	var hits int
	for _, t := range loc {
		if _, ok := body[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(loc))
}

// terms returns the distinct folded tokens of s in first-seen order, minus
// stop words and single-rune tokens.
func terms(s string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range normalize.Tokens(s) {
		if len([]rune(t)) < 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func termSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range terms(s) {
		set[t] = struct{}{}
	}
	return set
}

// ScoreAll returns a copy of results with RelevanceScore filled in.
func ScoreAll(results []search.Result, q search.Query, scorer Scorer) []search.Result {
	if scorer == nil {
		scorer = NewScorer()
	}
	out := make([]search.Result, len(results))
	for i, r := range results {
		r.RelevanceScore = scorer.Score(r, q)
		out[i] = r
	}
	return out
}

// FilterFloor drops results scoring below min. A min of zero keeps all.
func FilterFloor(results []search.Result, min float64) []search.Result {
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		if min > 0 && r.RelevanceScore < min {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders results by score descending, then platform priority, keeping
// discovery order for anything still tied.
func Sort(results []search.Result, priority search.Priority) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return priority.Before(a.Platform, b.Platform)
	})
}

// Truncate returns at most limit results. A non-positive limit uses DefaultCap.
func Truncate(results []search.Result, limit int) []search.Result {
	if limit <= 0 {
		limit = DefaultCap
	}
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampUnit(v float64) float64 { return clamp(v, 0, 1) }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
