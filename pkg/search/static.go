package search

import (
	"context"
	"strings"
)

// Static is an offline Searcher over a fixed result set. It keeps demos and
// tests off the network: hits are selected by case-insensitive term match
// against title and content.
type Static struct {
	results []Result
}

// NewStatic copies results into a Static searcher.
func NewStatic(results []Result) *Static {
	return &Static{results: append([]Result(nil), results...)}
}

func (s *Static) Search(_ context.Context, q Query) ([]Result, error) {
	max := q.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	terms := strings.Fields(strings.ToLower(q.Text))

	out := make([]Result, 0, max)
	for _, r := range s.results {
		if len(out) == max {
			break
		}
		if matches(r, terms) {
			out = append(out, r)
		}
	}
	return out, nil
}

// matches accepts a result when any query term occurs in its title or
// content. An empty term list matches everything.
func matches(r Result, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(r.Title + " " + r.Content)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
