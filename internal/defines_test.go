package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDefines(t *testing.T) {
	assert := assert.New(t)

	a := maps.All(map[string]string{"A": "1", "B": "2"})
	b := maps.All(map[string]string{"B": "3"})

	merged := maps.Collect(MergeDefines(a, nil, b))
	assert.Equal(map[string]string{"A": "1", "B": "3"}, merged)
}

func TestMergeDefines_Stop(t *testing.T) {
	assert := assert.New(t)

	a := maps.All(map[string]string{"A": "1", "B": "2"})

	count := 0
	for range MergeDefines(a, a) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(3, count)
}

func TestSortedDefines(t *testing.T) {
	assert := assert.New(t)

	src := maps.All(map[string]string{"C": "3", "A": "1", "B": "2"})

	var names []string
	for name := range SortedDefines(src) {
		names = append(names, name)
	}
	assert.Equal([]string{"A", "B", "C"}, names)
}
