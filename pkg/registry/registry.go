// Package registry holds named, versioned step descriptors, indexes them
// by category and tag, and resolves execution order from declared
// dependencies.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoobzio/clockz"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// Registered wraps a step implementation with its descriptor and
// registration time.
type Registered struct {
	Step         step.Step
	Descriptor   step.Descriptor
	RegisteredAt time.Time
}

// Registry is a constructible step registry. All methods are safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	steps      map[string]*Registered
	byCategory map[string]map[string]struct{}
	byTag      map[string]map[string]struct{}
	clock      clockz.Clock
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for registration timestamps.
func WithClock(c clockz.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		steps:      make(map[string]*Registered),
		byCategory: make(map[string]map[string]struct{}),
		byTag:      make(map[string]map[string]struct{}),
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores s under its own id, deriving the full descriptor from
// info. Registering an id twice fails with ErrDuplicateStep.
func (r *Registry) Register(s step.Step, info step.Info) error {
	id := s.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return errors.Wrapf(ErrDuplicateStep, "%q", id)
	}

	desc := step.Descriptor{
		ID:           id,
		Name:         info.Name,
		Description:  info.Description,
		Category:     info.Category,
		Version:      info.Version,
		Dependencies: append([]string(nil), info.Dependencies...),
		Tags:         append([]string(nil), info.Tags...),
	}
	r.steps[id] = &Registered{
		Step:         s,
		Descriptor:   desc,
		RegisteredAt: r.clock.Now(),
	}
	if desc.Category != "" {
		if r.byCategory[desc.Category] == nil {
			r.byCategory[desc.Category] = make(map[string]struct{})
		}
		r.byCategory[desc.Category][id] = struct{}{}
	}
	for _, tag := range desc.Tags {
		if r.byTag[tag] == nil {
			r.byTag[tag] = make(map[string]struct{})
		}
		r.byTag[tag][id] = struct{}{}
	}
	return nil
}

// Unregister removes id and prunes it from the category and tag indexes.
// It reports whether anything was removed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.steps[id]
	if !ok {
		return false
	}
	delete(r.steps, id)

	if cat := reg.Descriptor.Category; cat != "" {
		delete(r.byCategory[cat], id)
		if len(r.byCategory[cat]) == 0 {
			delete(r.byCategory, cat)
		}
	}
	for _, tag := range reg.Descriptor.Tags {
		delete(r.byTag[tag], id)
		if len(r.byTag[tag]) == 0 {
			delete(r.byTag, tag)
		}
	}
	return true
}

// Get returns the registered step implementation.
func (r *Registry) Get(id string) (step.Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.steps[id]
	if !ok {
		return nil, false
	}
	return reg.Step, true
}

// Descriptor returns the registered step's metadata.
func (r *Registry) Descriptor(id string) (step.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.steps[id]
	if !ok {
		return step.Descriptor{}, false
	}
	return reg.Descriptor, true
}

// All lists every registered descriptor, sorted by id.
func (r *Registry) All() []step.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]step.Descriptor, 0, len(r.steps))
	for _, reg := range r.steps {
		out = append(out, reg.Descriptor)
	}
	sortDescriptors(out)
	return out
}

// ByCategory lists descriptors registered under the given category.
func (r *Registry) ByCategory(category string) []step.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byCategory[category])
}

// ByTag lists descriptors registered with the given tag.
func (r *Registry) ByTag(tag string) []step.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byTag[tag])
}

// Search lists descriptors whose name or description contains the query,
// case-insensitively.
func (r *Registry) Search(query string) []step.Descriptor {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]step.Descriptor, 0)
	for _, reg := range r.steps {
		d := reg.Descriptor
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	sortDescriptors(out)
	return out
}

// DependencyCheck reports whether a step's declared dependencies are all
// registered.
type DependencyCheck struct {
	Valid   bool
	Missing []string
}

// ValidateDependencies checks that every declared dependency of id is
// currently registered.
func (r *Registry) ValidateDependencies(id string) (DependencyCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.steps[id]
	if !ok {
		return DependencyCheck{}, errors.Wrapf(ErrUnknownStep, "%q", id)
	}
	check := DependencyCheck{Valid: true}
	for _, dep := range reg.Descriptor.Dependencies {
		if _, ok := r.steps[dep]; !ok {
			check.Missing = append(check.Missing, dep)
		}
	}
	check.Valid = len(check.Missing) == 0
	return check, nil
}

func (r *Registry) collect(ids map[string]struct{}) []step.Descriptor {
	out := make([]step.Descriptor, 0, len(ids))
	for id := range ids {
		out = append(out, r.steps[id].Descriptor)
	}
	sortDescriptors(out)
	return out
}

func sortDescriptors(ds []step.Descriptor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}
