package exercise

import (
	"sort"

	"github.com/sahilm/fuzzy"
)

type filenames []Exercise

func (f filenames) String(i int) string { return f[i].Filename }
func (f filenames) Len() int            { return len(f) }

// Match keeps the exercises whose filename fuzzy-matches pattern. Catalog
// order is preserved. An empty pattern matches everything.
func (c Catalog) Match(pattern string) Catalog {
	if pattern == "" {
		return c
	}

	matches := fuzzy.FindFrom(pattern, filenames(c.exercises))
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	sort.Ints(idx)

	out := make([]Exercise, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.exercises[i])
	}
	return New(c.title, out...)
}
