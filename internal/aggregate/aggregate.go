package aggregate

import (
	"github.com/hyperifyio/leadscout/internal/normalize"
	"github.com/hyperifyio/leadscout/internal/search"
)

// SimilarityKey groups postings that describe the same lead: the folded
// title joined with the query-free URL fingerprint.
func SimilarityKey(r search.Result) string {
	return normalize.Fold(r.Title) + "|" + normalize.Fingerprint(r.URL)
}

// Deduplicate collapses results that are connected through a shared
// similarity key, resource key (URL with its identifying query), or ID. Within a group the representative
// is the highest scored entry; ties go to the platform earlier in priority,
// then to the entry seen first. Groups are emitted in order of their first
// member, so the output is stable for a given input order.
//
// No two results in the output share any key, which makes Deduplicate
// idempotent. Grouping is a union-find over hashed keys.
func Deduplicate(results []search.Result, priority search.Priority) []search.Result {
	n := len(results)
	if n == 0 {
		return []search.Result{}
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// Keep the smaller index as root so a group's root is its first member.
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	owner := make(map[string]int, n*3)
	for i, r := range results {
		for _, k := range groupKeys(r) {
			if j, ok := owner[k]; ok {
				union(i, j)
				continue
			}
			owner[k] = i
		}
	}

	best := make(map[int]int, n)
	roots := make([]int, 0, n)
	for i := range results {
		root := find(i)
		cur, ok := best[root]
		if !ok {
			best[root] = i
			roots = append(roots, root)
			continue
		}
		if better(results[i], results[cur], priority) {
			best[root] = i
		}
	}
	// Roots are group minima, so roots is already in first-seen order.
	out := make([]search.Result, 0, len(roots))
	for _, root := range roots {
		out = append(out, results[best[root]])
	}
	return out
}

func groupKeys(r search.Result) []string {
	keys := []string{"s:" + SimilarityKey(r), "id:" + r.ID}
	if rk := normalize.ResourceKey(r.URL); rk != "" {
		keys = append(keys, "u:"+rk)
	}
	return keys
}

// better reports whether candidate should replace current as representative.
// Equal candidates keep the earlier entry.
func better(candidate, current search.Result, priority search.Priority) bool {
	if candidate.RelevanceScore != current.RelevanceScore {
		return candidate.RelevanceScore > current.RelevanceScore
	}
	return priority.Before(candidate.Platform, current.Platform)
}
