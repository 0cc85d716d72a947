package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat2(t *testing.T) {
	assert := assert.New(t)

	a := map[string]int{"a": 1}
	b := map[string]int{"b": 2, "c": 3}

	got := map[string]int{}
	for key, value := range Concat2(maps.All(a), maps.All(b)) {
		got[key] = value
	}
	assert.Equal(map[string]int{"a": 1, "b": 2, "c": 3}, got)

	count := 0
	for range Concat2(maps.All(a), maps.All(b)) {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestSorted2(t *testing.T) {
	assert := assert.New(t)

	m := map[int64]int64{30: 3, -10: 1, 20: 2}

	var keys []int64
	var values []int64
	for key, value := range Sorted2(m) {
		keys = append(keys, key)
		values = append(values, value)
	}
	assert.Equal([]int64{-10, 20, 30}, keys)
	assert.Equal([]int64{1, 2, 3}, values)
}
