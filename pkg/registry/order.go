package registry

import (
	goerrors "errors"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// ExecutionOrder resolves a valid topological order restricted to the
// requested step ids. Dependencies outside the requested set are ignored,
// not pulled in transitively. A dependency cycle among the requested steps
// fails with a CircularDependencyError naming one implicated step.
func (r *Registry) ExecutionOrder(ids []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requested := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if _, seen := requested[id]; seen {
			continue
		}
		requested[id] = struct{}{}
		unique = append(unique, id)
		if _, ok := r.steps[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingStepsError{IDs: missing}
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, id := range unique {
		if err := g.AddVertex(id); err != nil {
			return nil, errors.Wrapf(err, "add step %q", id)
		}
	}
	for _, id := range unique {
		for _, dep := range r.steps[id].Descriptor.Dependencies {
			if _, in := requested[dep]; !in {
				continue
			}
			if dep == id {
				return nil, &CircularDependencyError{StepID: id}
			}
			err := g.AddEdge(dep, id)
			switch {
			case err == nil, goerrors.Is(err, graph.ErrEdgeAlreadyExists):
			case goerrors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, &CircularDependencyError{StepID: id}
			default:
				return nil, errors.Wrapf(err, "add dependency %q -> %q", dep, id)
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "resolve execution order")
	}
	return order, nil
}
