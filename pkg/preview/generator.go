package preview

import (
	"container/heap"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoobzio/clockz"
	"golang.org/x/sync/singleflight"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/keyhash"
	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/logging"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/cache"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
)

// ErrRenderTimeout is reported to a caller whose wait for an in-flight
// render exceeded the configured budget. The render itself still runs to
// completion and populates the cache.
var ErrRenderTimeout = errors.New("timed out waiting for in-flight render")

// DefaultWaitTimeout bounds how long a caller waits on a render already in
// flight for the same key.
const DefaultWaitTimeout = 5 * time.Second

// Metrics is a snapshot of the generator's running aggregates.
type Metrics struct {
	TotalRequests     int64
	CacheHitRate      float64
	AverageRenderTime time.Duration
	BackgroundRenders int64
	DeltaUpdates      int64
}

// Generator renders previews through an external RenderFunc, de-duplicates
// concurrent identical requests, serves presentation-only changes from
// prior renders and queues low-priority background work.
type Generator struct {
	render      RenderFunc
	cache       *cache.Cache[card.PreviewData]
	ownsCache   bool
	clock       clockz.Clock
	log         *slog.Logger
	waitTimeout time.Duration
	group       singleflight.Group

	mu         sync.Mutex
	inflight   map[string]struct{}
	queue      renderQueue
	seq        uint64
	background chan<- Request

	totalRequests int64
	cacheHits     int64
	avgRender     time.Duration
	bgRenders     int64
	deltaUpdates  int64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithCache supplies the artifact cache. The caller keeps ownership; Close
// will not touch it.
func WithCache(c *cache.Cache[card.PreviewData]) GeneratorOption {
	return func(g *Generator) {
		g.cache = c
		g.ownsCache = false
	}
}

// WithWaitTimeout sets the in-flight wait budget.
func WithWaitTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.waitTimeout = d }
}

// WithClock sets the clock used for timestamps and the wait timeout.
func WithClock(c clockz.Clock) GeneratorOption {
	return func(g *Generator) { g.clock = c }
}

// WithBackgroundChannel sets the channel background renders are handed to.
// Without one, QueueBackgroundRender is a no-op.
func WithBackgroundChannel(ch chan<- Request) GeneratorOption {
	return func(g *Generator) { g.background = ch }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.log = l }
}

// NewGenerator creates a generator around the external render collaborator.
func NewGenerator(render RenderFunc, opts ...GeneratorOption) *Generator {
	g := &Generator{
		render:      render,
		clock:       clockz.RealClock,
		log:         logging.L(),
		waitTimeout: DefaultWaitTimeout,
		inflight:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.New(cache.Options[card.PreviewData]{
			MaxEntries: 50,
			MaxAge:     10 * time.Minute,
			Size:       EstimateSize,
			Clock:      g.clock,
		})
		g.ownsCache = true
	}
	return g
}

// Cache exposes the underlying artifact cache.
func (g *Generator) Cache() *cache.Cache[card.PreviewData] { return g.cache }

type renderOutcome struct {
	data card.PreviewData
	dur  time.Duration
}

// GeneratePreview renders the requested preview, serving it from cache
// when possible. Concurrent calls sharing a cache key converge on a single
// render. The initiating caller waits for its own render without bound
// (the collaborator's timing is opaque); callers joining a render already
// in flight wait at most the configured timeout. Failures are returned
// inside the Result, never panicked or propagated.
func (g *Generator) GeneratePreview(ctx context.Context, req Request) Result {
	key := req.CacheKey
	if key == "" {
		key = DeriveKey(req)
	}
	g.recordRequest()

	if v, ok := g.cache.Get(key); ok {
		g.recordHit()
		return Result{Success: true, Data: &v, Cached: true, CacheHit: true}
	}

	// Claim the key before DoChan so joiners can be told apart from the
	// initiator.
	g.mu.Lock()
	_, joining := g.inflight[key]
	if !joining {
		g.inflight[key] = struct{}{}
	}
	g.mu.Unlock()

	ch := g.group.DoChan(key, func() (any, error) {
		defer g.clearInflight(key)
		start := time.Now()
		pv, err := g.render(ctx, req)
		if err != nil {
			return nil, err
		}
		g.cache.Set(key, pv)
		return renderOutcome{data: pv, dur: time.Since(start)}, nil
	})

	if joining {
		select {
		case <-g.clock.After(g.waitTimeout):
			return Result{Err: errors.Wrapf(ErrRenderTimeout, "key %s", key)}
		case res := <-ch:
			if res.Err != nil {
				return Result{Err: errors.Wrapf(res.Err, "render %s", req.StepID)}
			}
			// The in-flight render resolves like a cache hit.
			g.recordHit()
			out := res.Val.(renderOutcome)
			data := out.data
			return Result{Success: true, Data: &data, Cached: true, CacheHit: true}
		}
	}

	res := <-ch
	if res.Err != nil {
		return Result{Err: errors.Wrapf(res.Err, "render %s", req.StepID)}
	}
	out := res.Val.(renderOutcome)
	g.recordRender(out.dur)
	data := out.data
	return Result{Success: true, Data: &data, RenderTime: out.dur}
}

// GenerateDeltaPreview merges changes into base and, when the base render
// is cached and the differences are confined to presentation options (and
// the step, input length and settings are unchanged), produces a cheap
// delta artifact instead of re-rendering. Anything else falls back to a
// full GeneratePreview.
func (g *Generator) GenerateDeltaPreview(ctx context.Context, base Request, changes RequestPatch) Result {
	merged := base.Apply(changes)
	baseKey := base.CacheKey
	if baseKey == "" {
		baseKey = DeriveKey(base)
	}
	newKey := DeriveKey(merged)

	if prior, ok := g.cache.Get(baseKey); ok && uiOnlyChange(base, merged) {
		clone := prior.Clone()
		clone.DeltaRender = true
		clone.GeneratedAt = g.clock.Now()
		g.cache.Set(newKey, clone)
		g.recordDelta()
		return Result{Success: true, Data: &clone}
	}

	merged.CacheKey = newKey
	return g.GeneratePreview(ctx, merged)
}

// uiOnlyChange reports whether a and b render the same content and differ
// only in presentation options.
func uiOnlyChange(a, b Request) bool {
	return a.StepID == b.StepID &&
		len(a.Input) == len(b.Input) &&
		keyhash.Sum(a.Settings) == keyhash.Sum(b.Settings)
}

// QueueBackgroundRender enqueues a low-priority render and triggers one
// dispatch. Requests whose key is already cached or in flight are dropped,
// as is everything when no background channel is configured.
func (g *Generator) QueueBackgroundRender(req Request) {
	g.mu.Lock()
	configured := g.background != nil
	g.mu.Unlock()
	if !configured {
		return
	}

	key := req.CacheKey
	if key == "" {
		key = DeriveKey(req)
	}
	if g.cache.Has(key) {
		return
	}

	g.mu.Lock()
	if _, busy := g.inflight[key]; busy || g.background == nil {
		g.mu.Unlock()
		return
	}
	req.CacheKey = key
	req.Priority = PriorityLow
	heap.Push(&g.queue, &queued{req: req, seq: g.seq})
	g.seq++
	g.mu.Unlock()

	g.ProcessQueue()
}

// ProcessQueue hands exactly the single highest-priority queued request to
// the background channel. It is not a bulk drain; each trigger dispatches
// at most one entry.
func (g *Generator) ProcessQueue() {
	g.mu.Lock()
	if g.background == nil || g.queue.Len() == 0 {
		g.mu.Unlock()
		return
	}
	item := heap.Pop(&g.queue).(*queued)
	ch := g.background
	g.mu.Unlock()

	ch <- item.req

	g.mu.Lock()
	g.bgRenders++
	g.mu.Unlock()
}

// QueueLen reports the number of renders still queued.
func (g *Generator) QueueLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.Len()
}

// Invalidate removes cached previews whose key contains substr. An empty
// substring clears the whole cache. Returns the number of removed entries.
func (g *Generator) Invalidate(substr string) int {
	if substr == "" {
		n := g.cache.Stats().Size
		g.cache.Clear()
		return n
	}
	removed := 0
	for _, key := range g.cache.Keys() {
		if strings.Contains(key, substr) {
			if g.cache.Delete(key) {
				removed++
			}
		}
	}
	return removed
}

// InvalidateMatching removes cached previews whose key matches re.
func (g *Generator) InvalidateMatching(re *regexp.Regexp) int {
	removed := 0
	for _, key := range g.cache.Keys() {
		if re.MatchString(key) {
			if g.cache.Delete(key) {
				removed++
			}
		}
	}
	return removed
}

// Metrics returns a snapshot of the running aggregates.
func (g *Generator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := Metrics{
		TotalRequests:     g.totalRequests,
		AverageRenderTime: g.avgRender,
		BackgroundRenders: g.bgRenders,
		DeltaUpdates:      g.deltaUpdates,
	}
	if g.totalRequests > 0 {
		m.CacheHitRate = float64(g.cacheHits) / float64(g.totalRequests)
	}
	return m
}

// ResetMetrics zeroes the running aggregates.
func (g *Generator) ResetMetrics() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalRequests = 0
	g.cacheHits = 0
	g.avgRender = 0
	g.bgRenders = 0
	g.deltaUpdates = 0
}

// Close clears the cache, queue and in-flight bookkeeping and releases the
// background channel. A cache supplied by the caller is cleared but left
// open.
func (g *Generator) Close() {
	g.mu.Lock()
	g.queue = nil
	g.inflight = make(map[string]struct{})
	g.background = nil
	g.mu.Unlock()

	g.cache.Clear()
	if g.ownsCache {
		g.cache.Close()
	}
}

func (g *Generator) clearInflight(key string) {
	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
	g.group.Forget(key)
}

func (g *Generator) recordRequest() {
	g.mu.Lock()
	g.totalRequests++
	g.mu.Unlock()
}

func (g *Generator) recordHit() {
	g.mu.Lock()
	g.cacheHits++
	g.mu.Unlock()
}

// recordRender folds one render duration into the running average, keyed
// off the total request count.
func (g *Generator) recordRender(dur time.Duration) {
	g.mu.Lock()
	n := g.totalRequests
	if n <= 0 {
		n = 1
	}
	g.avgRender += (dur - g.avgRender) / time.Duration(n)
	g.mu.Unlock()
}

func (g *Generator) recordDelta() {
	g.mu.Lock()
	g.totalRequests++
	g.deltaUpdates++
	g.mu.Unlock()
}
