// Package search implements find-as-you-type narrowing over a candidate
// word list. Words map to the rows that own them, so an artist and an album
// belonging to the same row both land on that row's index.
package search

import (
	"errors"
	"sort"
	"unicode"
)

// ErrIdle is returned when a step is undone on an engine with no steps.
var ErrIdle = errors.New("search engine is idle")

// Word is one searchable string together with the index of the row that
// owns it. Several words may point at the same index.
type Word struct {
	Text  string
	Index int
}

type candidate struct {
	word  Word
	runes []rune
}

// Engine narrows a candidate set one typed character at a time. Each step
// holds the candidates valid for the input typed so far; undoing a
// character pops the step rather than recomputing.
type Engine struct {
	all   []candidate
	steps [][]candidate
}

// NewEngine creates an engine over the full candidate list.
func NewEngine(words []Word) *Engine {
	all := make([]candidate, 0, len(words))
	for _, w := range words {
		all = append(all, candidate{word: w, runes: foldRunes(w.Text)})
	}
	return &Engine{all: all}
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

// Active reports whether a search is in progress.
func (e *Engine) Active() bool { return len(e.steps) > 0 }

// Depth returns the number of characters typed so far.
func (e *Engine) Depth() int { return len(e.steps) }

// Advance narrows by one typed character and returns the size of the new
// candidate set. Comparison is case-insensitive at the typed offset. An
// empty result is a valid state; it stays empty for further characters
// until Retreat returns to a non-empty step.
func (e *Engine) Advance(r rune) int {
	offset := len(e.steps)
	prev := e.all
	if offset > 0 {
		prev = e.steps[offset-1]
	}

	r = unicode.ToLower(r)
	var next []candidate
	for _, c := range prev {
		if offset < len(c.runes) && c.runes[offset] == r {
			next = append(next, c)
		}
	}
	e.steps = append(e.steps, next)
	return len(next)
}

// Retreat undoes the last typed character. This is a pure pop of the step
// stack; the restored candidate set is exactly what it was before.
func (e *Engine) Retreat() error {
	if len(e.steps) == 0 {
		return ErrIdle
	}
	e.steps = e.steps[:len(e.steps)-1]
	return nil
}

// Candidates returns the words of the current step, or nil while idle.
func (e *Engine) Candidates() []Word {
	if len(e.steps) == 0 {
		return nil
	}
	step := e.steps[len(e.steps)-1]
	out := make([]Word, 0, len(step))
	for _, c := range step {
		out = append(out, c.word)
	}
	return out
}

// Finish confirms the search: it collects the owning indices of the final
// candidate set and clears all steps. An empty result means no matches,
// which is a valid outcome rather than an error.
func (e *Engine) Finish() Matches {
	var matches Matches
	if len(e.steps) > 0 {
		seen := make(map[int]bool)
		for _, c := range e.steps[len(e.steps)-1] {
			if !seen[c.word.Index] {
				seen[c.word.Index] = true
				matches = append(matches, c.word.Index)
			}
		}
		sort.Ints(matches)
	}
	e.steps = nil
	return matches
}

// Reset abandons the search and clears all steps.
func (e *Engine) Reset() { e.steps = nil }

// Matches is the sorted set of row indices a finished search landed on.
type Matches []int

// Next returns the smallest index greater than current, wrapping to the
// smallest overall. It returns -1 for an empty set.
func (m Matches) Next(current int) int {
	if len(m) == 0 {
		return -1
	}
	for _, idx := range m {
		if idx > current {
			return idx
		}
	}
	return m[0]
}

// Prev returns the largest index smaller than current, wrapping to the
// largest overall. It returns -1 for an empty set.
func (m Matches) Prev(current int) int {
	if len(m) == 0 {
		return -1
	}
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] < current {
			return m[i]
		}
	}
	return m[len(m)-1]
}
