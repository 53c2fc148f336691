// Package pipeline orchestrates the card transformation workflow: it owns
// the pipeline state, executes one registered step at a time with optional
// result caching, and reports progress through the event bus.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoobzio/clockz"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/keyhash"
	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/logging"
	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/telemetry"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/cache"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/events"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// Pipeline executes steps against shared settings and state. One step runs
// at a time; a second ExecuteStep while one is in progress fails with
// ErrPipelineBusy.
type Pipeline struct {
	opts  Options
	bus   *events.Bus
	cache *cache.Cache[step.Result]
	tele  *telemetry.Metrics
	clock clockz.Clock
	log   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a pipeline over the configured step list.
func New(opts Options, popts ...Option) *Pipeline {
	opts.applyDefaults()
	p := &Pipeline{
		opts:  opts,
		clock: clockz.RealClock,
		log:   logging.L(),
	}
	for _, opt := range popts {
		opt(p)
	}
	if p.bus == nil {
		p.bus = events.NewBus()
	}
	// The step-result cache is bounded by entry count only; results stay
	// valid until the settings change invalidates their key.
	p.cache = cache.New(cache.Options[step.Result]{
		MaxEntries:      opts.MaxCacheSize,
		MaxAge:          -1,
		CleanupInterval: -1,
		Clock:           p.clock,
	})
	p.state = newState(p.clock.Now())
	return p
}

// Bus returns the event bus lifecycle events are emitted on.
func (p *Pipeline) Bus() *events.Bus { return p.bus }

// State returns a defensive copy of the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.snapshot()
}

// UpdateSettings shallow-merges the patch into the current settings and
// emits settings-updated followed by state-changed.
func (p *Pipeline) UpdateSettings(patch card.SettingsPatch) {
	p.mu.Lock()
	p.state.Settings = p.state.Settings.Apply(patch)
	p.state.Metadata.LastModified = p.clock.Now()
	settings := p.state.Settings.Clone()
	p.mu.Unlock()

	p.bus.Emit(events.SettingsUpdated{Timestamp: p.clock.Now(), Settings: settings})
	p.bus.Emit(events.StateChanged{Timestamp: p.clock.Now()})
}

// ExecuteStep runs the named step against the given input, or against the
// current card collection when input is nil. The returned result is also
// recorded in the pipeline state. In strict mode a validation or execution
// failure is returned as an error alongside the failed result; in tolerant
// mode only the failed result is returned.
func (p *Pipeline) ExecuteStep(ctx context.Context, id string, input []card.Data) (step.Result, error) {
	s := p.findStep(id)
	if s == nil {
		return step.Result{}, errors.Wrapf(ErrUnknownStep, "%q", id)
	}

	p.mu.Lock()
	if p.state.IsProcessing {
		p.mu.Unlock()
		return step.Result{}, errors.Wrapf(ErrPipelineBusy, "step %q rejected", id)
	}
	p.state.IsProcessing = true
	p.state.CurrentStep = id
	if input == nil {
		input = card.CloneCards(p.state.Cards)
	}
	settings := p.state.Settings.Clone()
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state.IsProcessing = false
		p.state.CurrentStep = ""
		p.mu.Unlock()
		p.bus.Emit(events.StateChanged{Timestamp: p.clock.Now()})
	}()

	p.bus.Emit(events.StepStarted{Timestamp: p.clock.Now(), StepID: id, InputCards: len(input)})
	start := p.clock.Now()

	cacheable := p.opts.CacheEnabled && wantsCache(s)
	var key string
	if cacheable {
		key = cacheKeyFor(s, input, settings)
		if cached, ok := p.cache.Get(key); ok {
			res := cached.Clone()
			res.Metadata.CacheHit = true
			res.Metadata.Duration = p.clock.Now().Sub(start)
			p.recordSuccess(res)
			p.observe(id, "cached", res)
			if p.tele != nil && p.opts.PerformanceMonitoring {
				p.tele.CacheHits.Inc()
			}
			return res, nil
		}
		if p.tele != nil && p.opts.PerformanceMonitoring {
			p.tele.CacheMisses.Inc()
		}
	}

	v := s.Validate(settings)
	if !v.Valid {
		cause := &ValidationError{StepID: id, Issues: v.Errors}
		res := p.recordFailure(id, input, v, cause, p.clock.Now().Sub(start))
		if p.opts.ErrorHandling == ErrorModeStrict {
			return res, cause
		}
		return res, nil
	}

	output, execErr := runStep(ctx, s, input, settings)
	if execErr != nil {
		cause := &ExecutionError{StepID: id, Err: execErr}
		res := p.recordFailure(id, input, v, cause, p.clock.Now().Sub(start))
		if p.opts.ErrorHandling == ErrorModeStrict {
			return res, cause
		}
		return res, nil
	}

	res := step.Result{
		StepID:   id,
		Success:  true,
		Data:     output,
		Warnings: issueStrings(v.Warnings),
		Metadata: step.Metadata{
			Duration:       p.clock.Now().Sub(start),
			CardsProcessed: len(output),
		},
	}
	if cacheable {
		p.cache.Set(key, res.Clone())
	}
	p.recordSuccess(res)
	p.observe(id, "success", res)
	return res, nil
}

// GeneratePreview produces a best-effort preview for the named step
// against the current cards and settings (or the given input). Failures
// are logged, never returned; a nil result means no preview is available.
func (p *Pipeline) GeneratePreview(ctx context.Context, id string, input []card.Data) *card.PreviewData {
	s := p.findStep(id)
	if s == nil {
		p.log.Warn("preview requested for unknown step", "step", id)
		return nil
	}

	p.mu.Lock()
	if input == nil {
		input = card.CloneCards(p.state.Cards)
	}
	settings := p.state.Settings.Clone()
	p.mu.Unlock()

	pv, err := s.GeneratePreview(ctx, input, settings)
	if err != nil {
		p.log.Warn("preview generation failed", "step", id, "error", err)
		return nil
	}

	p.mu.Lock()
	if res, ok := p.state.StepResults[id]; ok {
		attached := pv.Clone()
		res.Preview = &attached
	}
	p.mu.Unlock()

	if p.tele != nil && p.opts.PerformanceMonitoring {
		p.tele.PreviewRenders.WithLabelValues("full").Inc()
	}
	p.bus.Emit(events.PreviewGenerated{Timestamp: p.clock.Now(), StepID: id, Preview: pv.Clone()})
	return &pv
}

// Reset reinitialises the pipeline state, clears the step-result cache and
// emits pipeline-reset followed by state-changed.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.state = newState(p.clock.Now())
	p.mu.Unlock()
	p.cache.Clear()

	p.bus.Emit(events.PipelineReset{Timestamp: p.clock.Now()})
	p.bus.Emit(events.StateChanged{Timestamp: p.clock.Now()})
}

// ClearCache empties the step-result cache.
func (p *Pipeline) ClearCache() {
	p.cache.Clear()
}

// CacheStats summarises step-result caching.
type CacheStats struct {
	Entries int
	HitRate float64
}

// CacheStats reports the entry count and a hit rate computed as total
// recorded cache hits divided by the number of steps with recorded
// metrics. That is a per-step coverage measure, not a per-request rate;
// per-request numbers come from ResultCacheStats.
func (p *Pipeline) CacheStats() CacheStats {
	stats := CacheStats{Entries: p.cache.Stats().Size}

	p.mu.Lock()
	defer p.mu.Unlock()
	var hits int64
	for _, pm := range p.state.Metadata.PerformanceMetrics {
		hits += pm.CacheHits
	}
	if n := len(p.state.Metadata.PerformanceMetrics); n > 0 {
		stats.HitRate = float64(hits) / float64(n)
	}
	return stats
}

// ResultCacheStats exposes the underlying step-result cache statistics.
func (p *Pipeline) ResultCacheStats() cache.Stats {
	return p.cache.Stats()
}

// Close releases the step-result cache.
func (p *Pipeline) Close() {
	p.cache.Close()
}

func (p *Pipeline) findStep(id string) step.Step {
	for _, s := range p.opts.Steps {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (p *Pipeline) recordSuccess(res step.Result) {
	now := p.clock.Now()

	p.mu.Lock()
	p.state.Cards = card.CloneCards(res.Data)
	stored := res.Clone()
	p.state.StepResults[res.StepID] = &stored
	p.state.Metadata.StepHistory = append(p.state.Metadata.StepHistory, res.StepID)
	p.state.Metadata.LastModified = now
	pm := p.state.Metadata.PerformanceMetrics[res.StepID]
	pm.Duration = res.Metadata.Duration
	pm.MemoryUsage = estimateCards(res.Data)
	if res.Metadata.CacheHit {
		pm.CacheHits++
	}
	p.state.Metadata.PerformanceMetrics[res.StepID] = pm
	p.mu.Unlock()

	p.bus.Emit(events.StepCompleted{Timestamp: now, StepID: res.StepID, Result: res.Clone()})
}

func (p *Pipeline) recordFailure(id string, input []card.Data, v step.ValidationResult, cause error, dur time.Duration) step.Result {
	now := p.clock.Now()
	res := step.Result{
		StepID:   id,
		Data:     card.CloneCards(input),
		Errors:   []string{cause.Error()},
		Warnings: issueStrings(v.Warnings),
		Metadata: step.Metadata{Duration: dur},
	}

	p.mu.Lock()
	stored := res.Clone()
	p.state.StepResults[id] = &stored
	p.state.Metadata.StepHistory = append(p.state.Metadata.StepHistory, id)
	p.state.Metadata.LastModified = now
	pm := p.state.Metadata.PerformanceMetrics[id]
	pm.Duration = dur
	p.state.Metadata.PerformanceMetrics[id] = pm
	p.mu.Unlock()

	p.bus.Emit(events.StepFailed{Timestamp: now, StepID: id, Reason: cause.Error()})
	p.observe(id, "failed", res)
	return res
}

func (p *Pipeline) observe(id, status string, res step.Result) {
	if p.tele == nil || !p.opts.PerformanceMonitoring {
		return
	}
	p.tele.ObserveStep(id, status, res.Metadata.Duration)
}

func runStep(ctx context.Context, s step.Step, input []card.Data, settings card.WorkflowSettings) ([]card.Data, error) {
	if b, ok := s.(step.BeforeExecutor); ok {
		if err := b.OnBeforeExecute(ctx, input, settings); err != nil {
			return nil, errors.Wrap(err, "before hook")
		}
	}
	out, err := s.Execute(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	if a, ok := s.(step.AfterExecutor); ok {
		if err := a.OnAfterExecute(ctx, out, settings); err != nil {
			return nil, errors.Wrap(err, "after hook")
		}
	}
	return out, nil
}

func wantsCache(s step.Step) bool {
	c, ok := s.(step.Cacheable)
	return ok && c.ShouldCache()
}

func cacheKeyFor(s step.Step, input []card.Data, settings card.WorkflowSettings) string {
	if ck, ok := s.(step.CacheKeyer); ok {
		return ck.CacheKey(input, settings)
	}
	return keyhash.Join("step", s.ID(), input, settings)
}

func issueStrings(issues []step.ValidationIssue) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, len(issues))
	for i, iss := range issues {
		out[i] = iss.Field + ": " + iss.Message
	}
	return out
}

func estimateCards(cards []card.Data) int64 {
	return int64(2 * len(keyhash.Canonical(cards)))
}
