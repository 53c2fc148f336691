package registry

import (
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/pipeline"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// NewPipelineOptions resolves the given step ids and returns a default
// pipeline configuration referencing them: caching on, strict error
// handling, default cache size. This is a convenience path; callers
// needing anything else construct pipeline.Options directly.
//
// If any id is unregistered, the error lists every unresolved id.
func (r *Registry) NewPipelineOptions(ids []string) (pipeline.Options, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]step.Step, 0, len(ids))
	var missing []string
	for _, id := range ids {
		reg, ok := r.steps[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		steps = append(steps, reg.Step)
	}
	if len(missing) > 0 {
		return pipeline.Options{}, &MissingStepsError{IDs: missing}
	}
	return pipeline.Options{
		Steps:                 steps,
		CacheEnabled:          true,
		MaxCacheSize:          pipeline.DefaultCacheSize,
		PerformanceMonitoring: true,
		ErrorHandling:         pipeline.ErrorModeStrict,
	}, nil
}
