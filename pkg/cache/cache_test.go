package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/cache"
)

func newTestCache(t *testing.T, opts cache.Options[string]) *cache.Cache[string] {
	t.Helper()
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = -1
	}
	c := cache.New(opts)
	t.Cleanup(c.Close)
	return c
}

func TestGetSetRoundTrip(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: -1})

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	c.Set("k", "v2")
	got, _ = c.Get("k")
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestLRUEvictionProtectsRecentlyRead(t *testing.T) {
	// Capacity five: fill, touch the oldest, insert a sixth. The
	// least recently used entry goes, not the oldest inserted.
	c := newTestCache(t, cache.Options[string]{MaxEntries: 5, MaxAge: -1})
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i))
	}

	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k5", "v5")

	_, ok = c.Get("k1")
	assert.False(t, ok)
	for _, key := range []string{"k0", "k2", "k3", "k4", "k5"} {
		assert.True(t, c.Has(key), key)
	}
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestKeysInRecencyOrder(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 5, MaxAge: -1})
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	_, _ = c.Get("k0")
	c.Set("k5", "v")

	assert.Equal(t, []string{"k5", "k0", "k4", "k3", "k2"}, c.Keys())
}

func TestExpiry(t *testing.T) {
	clk := clockz.NewFakeClock()
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: time.Minute, Clock: clk})

	c.Set("k", "v")
	assert.True(t, c.Has("k"))

	clk.Advance(61 * time.Second)
	assert.False(t, c.Has("k"))

	_, ok := c.Get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.TotalMisses)
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	clk := clockz.NewFakeClock()
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: time.Minute, Clock: clk})

	c.Set("old-1", "v")
	c.Set("old-2", "v")
	clk.Advance(45 * time.Second)
	c.Set("fresh", "v")
	clk.Advance(30 * time.Second)

	assert.Equal(t, 2, c.Cleanup())
	assert.Equal(t, []string{"fresh"}, c.Keys())
}

func TestBackgroundSweep(t *testing.T) {
	clk := clockz.NewFakeClock()
	c := cache.New(cache.Options[string]{
		MaxEntries:      10,
		MaxAge:          time.Minute,
		Clock:           clk,
		CleanupInterval: 30 * time.Second,
	})
	defer c.Close()

	c.Set("k", "v")

	// The sweep runs on the janitor goroutine; keep advancing until it
	// has fired at least once past the entry's age.
	assert.Eventually(t, func() bool {
		clk.Advance(31 * time.Second)
		clk.BlockUntilReady()
		return c.Stats().Size == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryBoundEvictsBeforeInsert(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{
		MaxEntries: 10,
		MaxAge:     -1,
		MaxMemory:  250,
		Size:       func(string) int64 { return 100 },
	})

	c.Set("a", "v")
	c.Set("b", "v")
	assert.Equal(t, int64(200), c.Stats().MemoryUsage)

	c.Set("c", "v")
	stats := c.Stats()
	assert.Equal(t, int64(200), stats.MemoryUsage)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
}

func TestMemoryAccountingOnDeleteAndReplace(t *testing.T) {
	sizes := map[string]int64{"small": 10, "big": 90}
	c := newTestCache(t, cache.Options[string]{
		MaxEntries: 10,
		MaxAge:     -1,
		Size:       func(v string) int64 { return sizes[v] },
	})

	c.Set("k", "small")
	assert.Equal(t, int64(10), c.Stats().MemoryUsage)
	c.Set("k", "big")
	assert.Equal(t, int64(90), c.Stats().MemoryUsage)

	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))
	assert.Equal(t, int64(0), c.Stats().MemoryUsage)
}

func TestHitRate(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: -1})
	assert.Zero(t, c.Stats().HitRate)

	c.Set("k", "v")
	_, _ = c.Get("k")
	_, _ = c.Get("k")
	_, _ = c.Get("nope")
	_, _ = c.Get("nada")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.TotalHits)
	assert.Equal(t, int64(2), stats.TotalMisses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestHasDoesNotPromote(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 2, MaxAge: -1})
	c.Set("a", "v")
	c.Set("b", "v")

	assert.True(t, c.Has("a"))
	c.Set("c", "v")

	// Has must not have refreshed "a"; it is still the LRU entry.
	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
}

func TestClearResetsStats(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 2, MaxAge: -1})
	c.Set("a", "v")
	c.Set("b", "v")
	c.Set("c", "v")
	_, _ = c.Get("b")
	_, _ = c.Get("missing")

	c.Clear()
	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Zero(t, stats.TotalHits)
	assert.Zero(t, stats.TotalMisses)
	assert.Zero(t, stats.Evictions)
	assert.Zero(t, stats.MemoryUsage)
	assert.Empty(t, c.Keys())
}

func TestOldestNewestEntry(t *testing.T) {
	clk := clockz.NewFakeClock()
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: -1, Clock: clk})

	c.Set("first", "v")
	oldest := clk.Now()
	clk.Advance(10 * time.Second)
	c.Set("second", "v")

	stats := c.Stats()
	assert.Equal(t, oldest, stats.OldestEntry)
	assert.Equal(t, clk.Now(), stats.NewestEntry)
}

func TestAccessPattern(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: -1})
	c.Set("rare", "v")
	c.Set("hot", "v")
	c.Set("warm", "v")
	for i := 0; i < 3; i++ {
		_, _ = c.Get("hot")
	}
	_, _ = c.Get("warm")

	pattern := c.AccessPattern()
	require.Len(t, pattern, 3)
	assert.Equal(t, "hot", pattern[0].Key)
	assert.Equal(t, int64(3), pattern[0].AccessCount)
	assert.Equal(t, "warm", pattern[1].Key)
	assert.Equal(t, "rare", pattern[2].Key)
}

func TestAccessPatternTiesKeepInsertionOrder(t *testing.T) {
	c := newTestCache(t, cache.Options[string]{MaxEntries: 10, MaxAge: -1})
	c.Set("first", "v")
	c.Set("second", "v")

	// Equal counts, but the recency order is now second, first.
	_, _ = c.Get("first")
	_, _ = c.Get("second")

	pattern := c.AccessPattern()
	require.Len(t, pattern, 2)
	assert.Equal(t, "first", pattern[0].Key)
	assert.Equal(t, "second", pattern[1].Key)
}

func TestDefaultSizeEstimator(t *testing.T) {
	type blob struct{ Payload string }
	c := cache.New(cache.Options[blob]{MaxEntries: 10, MaxAge: -1, CleanupInterval: -1})
	defer c.Close()

	c.Set("k", blob{Payload: "xyz"})
	// {"Payload":"xyz"} is 17 characters, two bytes each.
	assert.Equal(t, int64(34), c.Stats().MemoryUsage)
}
