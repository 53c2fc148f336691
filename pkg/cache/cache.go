// Package cache provides a generic bounded cache keyed by string. Entries
// are bounded by count, age and estimated memory footprint; eviction is
// least-recently-used. The recency order is an explicit doubly-linked list
// with a hash index, so promote and evict are O(1).
package cache

import (
	"container/list"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// DefaultCleanupInterval is the cadence of the background expiry sweep.
const DefaultCleanupInterval = 5 * time.Minute

// SizeFunc estimates the byte cost of a cached value.
type SizeFunc[T any] func(T) int64

// Options configures a Cache.
type Options[T any] struct {
	// MaxEntries bounds the entry count. Zero means the default of 100.
	MaxEntries int
	// MaxAge expires entries older than this. Zero means the default of
	// five minutes; negative disables expiry.
	MaxAge time.Duration
	// MaxMemory bounds the summed entry sizes in bytes. Zero means
	// unbounded.
	MaxMemory int64
	// Size estimates the byte cost of a value. Nil falls back to two
	// bytes per serialised character.
	Size SizeFunc[T]
	// Clock supplies time; nil means the real clock.
	Clock clockz.Clock
	// CleanupInterval is the cadence of the background expiry sweep.
	// Zero means DefaultCleanupInterval; negative disables the sweep.
	CleanupInterval time.Duration
}

type entry[T any] struct {
	value       T
	timestamp   time.Time
	lastAccess  time.Time
	accessCount int64
	size        int64
	seq         uint64
	elem        *list.Element
}

// Cache is a bounded LRU/TTL/memory cache. All methods are safe for
// concurrent use; the entry map, recency list and memory counter are
// mutated as a unit under one mutex.
type Cache[T any] struct {
	mu      sync.Mutex
	opts    Options[T]
	clock   clockz.Clock
	entries map[string]*entry[T]
	recency *list.List // front = most recently used
	memory  int64
	nextSeq uint64

	hits      int64
	misses    int64
	evictions int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its background expiry sweep.
func New[T any](opts Options[T]) *Cache[T] {
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 100
	}
	if opts.MaxAge == 0 {
		opts.MaxAge = 5 * time.Minute
	}
	if opts.Size == nil {
		opts.Size = estimateJSON[T]
	}
	c := &Cache[T]{
		opts:    opts,
		clock:   opts.Clock,
		entries: make(map[string]*entry[T]),
		recency: list.New(),
		done:    make(chan struct{}),
	}
	if c.clock == nil {
		c.clock = clockz.RealClock
	}
	interval := opts.CleanupInterval
	if interval == 0 {
		interval = DefaultCleanupInterval
	}
	if interval > 0 {
		go c.janitor(interval)
	}
	return c
}

func (c *Cache[T]) janitor(interval time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case <-c.clock.After(interval):
			c.Cleanup()
		}
	}
}

// Close stops the background sweep. The cache remains usable.
func (c *Cache[T]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Get returns the value under key and refreshes its recency. An expired
// entry is removed and counted as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	now := c.clock.Now()
	if c.expired(e, now) {
		c.removeLocked(key, e)
		c.misses++
		return zero, false
	}
	e.accessCount++
	e.lastAccess = now
	c.recency.MoveToFront(e.elem)
	c.hits++
	return e.value, true
}

// Set stores value under key, replacing any existing entry. Before the
// insert, least-recently-used entries are evicted until the new value fits
// the memory bound; afterwards the count bound and expiry are enforced.
func (c *Cache[T]) Set(key string, value T) {
	size := c.opts.Size(value)
	if size < 0 {
		size = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}
	if c.opts.MaxMemory > 0 {
		for c.memory+size > c.opts.MaxMemory && c.recency.Len() > 0 {
			c.evictTailLocked()
		}
	}

	now := c.clock.Now()
	e := &entry[T]{
		value:      value,
		timestamp:  now,
		lastAccess: now,
		size:       size,
		seq:        c.nextSeq,
	}
	c.nextSeq++
	e.elem = c.recency.PushFront(key)
	c.entries[key] = e
	c.memory += size

	for c.recency.Len() > c.opts.MaxEntries {
		c.evictTailLocked()
	}
	c.sweepLocked(now)
}

// Delete removes key and reports whether an entry was present.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(key, e)
	return true
}

// Has reports whether key holds a live, unexpired entry. It does not
// refresh recency.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return !c.expired(e, c.clock.Now())
}

// Clear removes every entry and resets all statistics.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
	c.recency.Init()
	c.memory = 0
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// Keys lists the live keys from most to least recently used.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.recency.Len())
	for el := c.recency.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(string))
	}
	return keys
}

// Cleanup removes all currently expired entries and returns the count.
func (c *Cache[T]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.clock.Now())
}

func (c *Cache[T]) expired(e *entry[T], now time.Time) bool {
	return c.opts.MaxAge > 0 && now.Sub(e.timestamp) > c.opts.MaxAge
}

func (c *Cache[T]) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if c.expired(e, now) {
			c.removeLocked(key, e)
			removed++
		}
	}
	return removed
}

func (c *Cache[T]) evictTailLocked() {
	tail := c.recency.Back()
	if tail == nil {
		return
	}
	key := tail.Value.(string)
	c.removeLocked(key, c.entries[key])
	c.evictions++
}

func (c *Cache[T]) removeLocked(key string, e *entry[T]) {
	c.recency.Remove(e.elem)
	delete(c.entries, key)
	c.memory -= e.size
}

// estimateJSON is the fallback size estimator: two bytes per serialised
// character, 64 bytes when the value cannot be serialised.
func estimateJSON[T any](v T) int64 {
	raw, err := json.Marshal(v)
	if err != nil {
		return 64
	}
	return int64(2 * len(raw))
}

// Stats is a point-in-time statistics snapshot.
type Stats struct {
	Size        int
	MaxSize     int
	HitRate     float64
	TotalHits   int64
	TotalMisses int64
	Evictions   int64
	MemoryUsage int64
	MaxMemory   int64
	OldestEntry time.Time
	NewestEntry time.Time
}

// Stats returns a snapshot. HitRate is hits/(hits+misses), zero when the
// cache has seen no requests. Oldest and newest are by stored timestamp.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        len(c.entries),
		MaxSize:     c.opts.MaxEntries,
		TotalHits:   c.hits,
		TotalMisses: c.misses,
		Evictions:   c.evictions,
		MemoryUsage: c.memory,
		MaxMemory:   c.opts.MaxMemory,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	for _, e := range c.entries {
		if s.OldestEntry.IsZero() || e.timestamp.Before(s.OldestEntry) {
			s.OldestEntry = e.timestamp
		}
		if s.NewestEntry.IsZero() || e.timestamp.After(s.NewestEntry) {
			s.NewestEntry = e.timestamp
		}
	}
	return s
}

// Access describes one entry's access history.
type Access struct {
	Key         string
	AccessCount int64
	LastAccess  time.Time
	Age         time.Duration
}

// AccessPattern lists entries sorted by access count, most accessed first.
// Ties keep insertion order.
func (c *Cache[T]) AccessPattern() []Access {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	type seqAccess struct {
		access Access
		seq    uint64
	}
	all := make([]seqAccess, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, seqAccess{
			access: Access{
				Key:         key,
				AccessCount: e.accessCount,
				LastAccess:  e.lastAccess,
				Age:         now.Sub(e.timestamp),
			},
			seq: e.seq,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].access.AccessCount > all[j].access.AccessCount
	})
	out := make([]Access, len(all))
	for i, a := range all {
		out[i] = a.access
	}
	return out
}
