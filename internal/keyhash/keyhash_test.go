package keyhash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/keyhash"
)

type payload struct {
	Name  string
	Count int
	Tags  []string
}

func TestSumDeterministic(t *testing.T) {
	tcs := map[string]struct {
		a any
		b any
	}{
		"structs":    {payload{Name: "x", Count: 3}, payload{Name: "x", Count: 3}},
		"slices":     {[]int{1, 2, 3}, []int{1, 2, 3}},
		"maps":       {map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}},
		"primitives": {42, 42},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, keyhash.Sum(tc.a), keyhash.Sum(tc.b))
		})
	}
}

func TestSumDistinguishesValues(t *testing.T) {
	assert.NotEqual(t, keyhash.Sum(payload{Name: "x"}), keyhash.Sum(payload{Name: "y"}))
	assert.NotEqual(t, keyhash.Sum([]int{1, 2}), keyhash.Sum([]int{2, 1}))
}

func TestSumUnserializableFallsBackToRandom(t *testing.T) {
	ch := make(chan int)
	// Each call yields a fresh random key, so repeated requests miss
	// instead of colliding.
	assert.NotEqual(t, keyhash.Sum(ch), keyhash.Sum(ch))
}

func TestJoinPositionDependent(t *testing.T) {
	assert.Equal(t, keyhash.Join("a", 1), keyhash.Join("a", 1))
	assert.NotEqual(t, keyhash.Join("a", 1), keyhash.Join(1, "a"))
	assert.NotEqual(t, keyhash.Join("ab"), keyhash.Join("a", "b"))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, `{"a":1,"b":2}`, keyhash.Canonical(map[string]int{"b": 2, "a": 1}))
	assert.Equal(t, "", keyhash.Canonical(make(chan int)))
}

func TestRandomUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		k := keyhash.Random()
		_, dup := seen[k]
		assert.False(t, dup)
		seen[k] = struct{}{}
	}
}
