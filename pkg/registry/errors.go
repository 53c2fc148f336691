package registry

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateStep reports a registration under an id that is
	// already taken.
	ErrDuplicateStep = errors.New("step id already registered")
	// ErrUnknownStep reports a reference to an unregistered step id.
	ErrUnknownStep = errors.New("step is not registered")
)

// CircularDependencyError reports a dependency cycle, naming one step on
// the cycle.
type CircularDependencyError struct {
	StepID string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency involving step %q", e.StepID)
}

// MissingStepsError lists every requested step id that is not registered.
type MissingStepsError struct {
	IDs []string
}

func (e *MissingStepsError) Error() string {
	return "missing steps: " + strings.Join(e.IDs, ", ")
}
