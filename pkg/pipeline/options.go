package pipeline

import (
	"log/slog"

	"github.com/zoobzio/clockz"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/telemetry"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/events"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// ErrorMode selects how step failures propagate to the ExecuteStep caller.
type ErrorMode string

const (
	// ErrorModeStrict returns the failure as an error after recording it.
	ErrorModeStrict ErrorMode = "strict"
	// ErrorModeTolerant records the failure and returns the failed
	// result without an error.
	ErrorModeTolerant ErrorMode = "tolerant"
)

// DefaultCacheSize bounds the step-result cache unless configured.
const DefaultCacheSize = 50

// Options is the configuration surface of a Pipeline.
type Options struct {
	Steps                 []step.Step
	CacheEnabled          bool
	MaxCacheSize          int
	PerformanceMonitoring bool
	ErrorHandling         ErrorMode
}

func (o *Options) applyDefaults() {
	if o.MaxCacheSize <= 0 {
		o.MaxCacheSize = DefaultCacheSize
	}
	if o.ErrorHandling == "" {
		o.ErrorHandling = ErrorModeStrict
	}
}

// Option configures pipeline collaborators.
type Option func(*Pipeline)

// WithBus supplies the event bus. Without it the pipeline creates its own.
func WithBus(b *events.Bus) Option {
	return func(p *Pipeline) { p.bus = b }
}

// WithClock sets the clock used for timestamps and durations.
func WithClock(c clockz.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithTelemetry wires process-level metrics. They are updated only when
// PerformanceMonitoring is enabled.
func WithTelemetry(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.tele = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}
