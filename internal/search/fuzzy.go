package search

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Fuzzy returns the owning indices of words fuzzy-matching the query, best
// matches first. Unlike the incremental engine this ranks a whole query at
// once; the CLI uses it for one-shot filtering.
func Fuzzy(query string, words []Word) []int {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}

	ranks := fuzzy.RankFindNormalizedFold(query, texts)
	sort.Sort(ranks)

	var out []int
	seen := make(map[int]bool)
	for _, rank := range ranks {
		idx := words[rank.OriginalIndex].Index
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out
}
