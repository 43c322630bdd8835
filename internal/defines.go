package internal

import (
	"cmp"
	"iter"
	"slices"
)

// Defines is an iterator of NAME to value pairs used as assembler predefines.
type Defines = iter.Seq2[string, string]

// MergeDefines chains several define sources, in order. Consumers that
// collect into a map see later sources override earlier ones.
func MergeDefines(sources ...Defines) Defines {
	return func(yield func(string, string) bool) {
		for _, source := range sources {
			if source == nil {
				continue
			}
			for name, value := range source {
				if !yield(name, value) {
					return
				}
			}
		}
	}
}

// SortedDefines yields the defines ordered by name.
func SortedDefines(source Defines) Defines {
	type pair struct{ name, value string }

	var pairs []pair
	for name, value := range source {
		pairs = append(pairs, pair{name, value})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return cmp.Compare(a.name, b.name) })

	return func(yield func(string, string) bool) {
		for _, p := range pairs {
			if !yield(p.name, p.value) {
				return
			}
		}
	}
}
