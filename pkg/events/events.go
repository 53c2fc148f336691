// Package events defines the pipeline's lifecycle event union and the bus
// that delivers it.
package events

import (
	"time"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// Type identifies an event variant.
type Type string

const (
	TypeStepStarted      Type = "step-started"
	TypeStepCompleted    Type = "step-completed"
	TypeStepFailed       Type = "step-failed"
	TypePipelineReset    Type = "pipeline-reset"
	TypeStateChanged     Type = "state-changed"
	TypePreviewGenerated Type = "preview-generated"
	TypeSettingsUpdated  Type = "settings-updated"
)

// Event is the closed union of pipeline lifecycle events. Only types in
// this package implement it. Events are immutable fire-and-forget values.
type Event interface {
	Kind() Type
	When() time.Time
	sealed()
}

// StepStarted is emitted when a step enters execution.
type StepStarted struct {
	Timestamp  time.Time
	StepID     string
	InputCards int
}

func (e StepStarted) Kind() Type      { return TypeStepStarted }
func (e StepStarted) When() time.Time { return e.Timestamp }
func (StepStarted) sealed()           {}

// StepCompleted is emitted after a step finishes, whether it executed or
// was served from the result cache.
type StepCompleted struct {
	Timestamp time.Time
	StepID    string
	Result    step.Result
}

func (e StepCompleted) Kind() Type      { return TypeStepCompleted }
func (e StepCompleted) When() time.Time { return e.Timestamp }
func (StepCompleted) sealed()           {}

// StepFailed is emitted when validation or execution fails.
type StepFailed struct {
	Timestamp time.Time
	StepID    string
	Reason    string
}

func (e StepFailed) Kind() Type      { return TypeStepFailed }
func (e StepFailed) When() time.Time { return e.Timestamp }
func (StepFailed) sealed()           {}

// PipelineReset is emitted after the pipeline state is reinitialised.
type PipelineReset struct {
	Timestamp time.Time
}

func (e PipelineReset) Kind() Type      { return TypePipelineReset }
func (e PipelineReset) When() time.Time { return e.Timestamp }
func (PipelineReset) sealed()           {}

// StateChanged is emitted whenever pipeline state has been mutated.
type StateChanged struct {
	Timestamp time.Time
}

func (e StateChanged) Kind() Type      { return TypeStateChanged }
func (e StateChanged) When() time.Time { return e.Timestamp }
func (StateChanged) sealed()           {}

// PreviewGenerated is emitted after a step preview has been produced.
type PreviewGenerated struct {
	Timestamp time.Time
	StepID    string
	Preview   card.PreviewData
}

func (e PreviewGenerated) Kind() Type      { return TypePreviewGenerated }
func (e PreviewGenerated) When() time.Time { return e.Timestamp }
func (PreviewGenerated) sealed()           {}

// SettingsUpdated is emitted after UpdateSettings merges a patch.
type SettingsUpdated struct {
	Timestamp time.Time
	Settings  card.WorkflowSettings
}

func (e SettingsUpdated) Kind() Type      { return TypeSettingsUpdated }
func (e SettingsUpdated) When() time.Time { return e.Timestamp }
func (SettingsUpdated) sealed()           {}
