// Package step defines the contract every workflow stage satisfies and the
// result record the pipeline keeps per executed stage.
package step

import (
	"context"
	"time"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
)

// Step is the capability contract the pipeline executes against. The
// pipeline never branches on a concrete stage type, only on this contract
// and the optional capabilities below.
type Step interface {
	// ID returns the globally unique step identifier.
	ID() string
	// Execute transforms the card collection under the given settings.
	// Ownership of the returned collection transfers to the caller.
	Execute(ctx context.Context, input []card.Data, settings card.WorkflowSettings) ([]card.Data, error)
	// GeneratePreview produces a cheap visual approximation of the step's
	// output without performing the transformation.
	GeneratePreview(ctx context.Context, input []card.Data, settings card.WorkflowSettings) (card.PreviewData, error)
	// Validate checks the settings before execution.
	Validate(settings card.WorkflowSettings) ValidationResult
}

// BeforeExecutor is an optional side-effect hook run before Execute.
type BeforeExecutor interface {
	OnBeforeExecute(ctx context.Context, input []card.Data, settings card.WorkflowSettings) error
}

// AfterExecutor is an optional side-effect hook run after Execute.
type AfterExecutor interface {
	OnAfterExecute(ctx context.Context, output []card.Data, settings card.WorkflowSettings) error
}

// CacheKeyer lets a step supply its own result-cache key.
type CacheKeyer interface {
	CacheKey(input []card.Data, settings card.WorkflowSettings) string
}

// Cacheable lets a step opt in to result caching.
type Cacheable interface {
	ShouldCache() bool
}

// ValidationIssue is a single field-level finding from Validate.
type ValidationIssue struct {
	Field   string
	Message string
	Code    string
}

// ValidationResult reports whether settings are acceptable for a step.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// Metadata describes how a result was produced.
type Metadata struct {
	Duration       time.Duration
	CardsProcessed int
	CacheHit       bool
}

// Result is the retained record of one step execution. The pipeline keeps
// one per step id, overwritten on re-execution.
type Result struct {
	StepID   string
	Success  bool
	Data     []card.Data
	Errors   []string
	Warnings []string
	Metadata Metadata
	Preview  *card.PreviewData
}

// Clone returns an independent copy of the result.
func (r Result) Clone() Result {
	out := r
	out.Data = card.CloneCards(r.Data)
	if r.Errors != nil {
		out.Errors = append([]string(nil), r.Errors...)
	}
	if r.Warnings != nil {
		out.Warnings = append([]string(nil), r.Warnings...)
	}
	if r.Preview != nil {
		pv := r.Preview.Clone()
		out.Preview = &pv
	}
	return out
}

// Descriptor is the immutable metadata a step is registered under.
type Descriptor struct {
	ID           string
	Name         string
	Description  string
	Category     string
	Version      string
	Dependencies []string
	Tags         []string
}

// Info is a Descriptor without the id, which is taken from the step itself
// at registration time.
type Info struct {
	Name         string
	Description  string
	Category     string
	Version      string
	Dependencies []string
	Tags         []string
}
