package pipeline

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

var (
	// ErrPipelineBusy reports an ExecuteStep call while another step is
	// still executing. Calls are never queued.
	ErrPipelineBusy = errors.New("pipeline is already executing a step")
	// ErrUnknownStep reports a step id that is not part of the
	// configured step list.
	ErrUnknownStep = errors.New("step is not part of this pipeline")
)

// ValidationError reports step-declared settings problems found before any
// side effect.
type ValidationError struct {
	StepID string
	Issues []step.ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		parts[i] = iss.Field + ": " + iss.Message
	}
	return fmt.Sprintf("settings validation failed for step %q: %s", e.StepID, strings.Join(parts, "; "))
}

// ExecutionError wraps a failure from a step's hooks or Execute.
type ExecutionError struct {
	StepID string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.StepID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
