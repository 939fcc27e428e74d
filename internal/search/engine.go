package search

import (
	"sort"
	"strings"

	"github.com/rsdoclab/rsdoc/internal/index"
)

// Query describes one search request. Kind, when set, restricts results
// to that item kind; Limit caps the result count.
type Query struct {
	Text  string
	Kind  string
	Limit int
}

// Match tiers, highest first. The ordering is part of the contract:
// path locality always beats a documentation-only hit.
const (
	tierExactSegment = 4
	tierPrefix       = 3
	tierSubstring    = 2
	tierDocsOnly     = 1
)

// Result is one scored hit.
type Result struct {
	Crate        string
	Item         *index.Item
	Score        int
	MatchedField string // "path", "signature" or "docs"
}

// Results is a finite, non-restartable sequence: each call to Next
// consumes one result and a drained sequence stays empty.
type Results struct {
	results []Result
	pos     int
}

func (r *Results) Next() (Result, bool) {
	if r.pos >= len(r.results) {
		return Result{}, false
	}
	res := r.results[r.pos]
	r.pos++
	return res, true
}

// Collect drains the remaining results into a slice.
func (r *Results) Collect() []Result {
	out := r.results[r.pos:]
	r.pos = len(r.results)
	return out
}

// Kinds is the accepted kind-filter vocabulary.
var Kinds = map[string]bool{
	"module":     true,
	"struct":     true,
	"enum":       true,
	"trait":      true,
	"function":   true,
	"constant":   true,
	"static":     true,
	"type_alias": true,
	"union":      true,
	"variant":    true,
	"macro":      true,
}

// NormalizeKind maps caller-friendly kind names onto the generator's
// vocabulary.
func NormalizeKind(kind string) string {
	if kind == "type" {
		return "type_alias"
	}
	return kind
}

// Search ranks items across the given indices. It is a pure read over
// whatever is already indexed and never triggers a build. Matching is
// case insensitive over path segments, signature text and docs; the
// ordering (tier, then shorter path, then lexicographic path, then
// crate) is deterministic for identical inputs.
func Search(indices []*index.Index, q Query) *Results {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return &Results{}
	}

	var results []Result
	for _, idx := range indices {
		idx.Items(func(item *index.Item) bool {
			if len(item.Path) == 0 {
				return true
			}
			if q.Kind != "" && item.Kind != q.Kind {
				return true
			}
			score, field := scoreItem(item, text)
			if score == 0 {
				return true
			}
			results = append(results, Result{
				Crate:        idx.CrateName,
				Item:         item,
				Score:        score,
				MatchedField: field,
			})
			return true
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Item.Path) != len(b.Item.Path) {
			return len(a.Item.Path) < len(b.Item.Path)
		}
		ap, bp := index.PathKey(a.Item.Path), index.PathKey(b.Item.Path)
		if ap != bp {
			return ap < bp
		}
		return a.Crate < b.Crate
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return &Results{results: results}
}

// scoreItem returns the best tier the item reaches for the query and
// which field produced it.
func scoreItem(item *index.Item, query string) (int, string) {
	best := 0
	for _, segment := range item.Path {
		lower := strings.ToLower(segment)
		switch {
		case lower == query:
			return tierExactSegment, "path"
		case strings.HasPrefix(lower, query):
			best = max(best, tierPrefix)
		case strings.Contains(lower, query):
			best = max(best, tierSubstring)
		}
		if best < tierPrefix {
			// Sub-word hits let "read" find ReadToString without a
			// raw substring match on the query casing.
			for _, token := range Tokenize(segment) {
				if token == query {
					best = max(best, tierPrefix)
					break
				}
			}
		}
	}
	if best >= tierPrefix {
		return best, "path"
	}

	if item.Signature != "" && strings.Contains(strings.ToLower(item.Signature), query) {
		best = max(best, tierSubstring)
		return best, "signature"
	}
	if best > 0 {
		return best, "path"
	}

	if item.Docs != "" && strings.Contains(strings.ToLower(item.Docs), query) {
		return tierDocsOnly, "docs"
	}
	return 0, ""
}
