package operations

import (
	"fmt"
)

// Registry holds the pipeline steps in execution order. It is filled
// once before a run; registration is not safe for concurrent use.
type Registry struct {
	steps []Step
	index map[string]int
}

// NewRegistry creates an empty Step registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends steps in the order given. It stops at the first step
// that is nil, has no ID or reuses an ID.
func (r *Registry) Register(steps ...Step) error {
	for _, step := range steps {
		if step == nil {
			return fmt.Errorf("cannot register nil step")
		}
		id := step.ID()
		if id == "" {
			return fmt.Errorf("step ID cannot be empty")
		}
		if _, dup := r.index[id]; dup {
			return fmt.Errorf("step %s already registered", id)
		}
		r.index[id] = len(r.steps)
		r.steps = append(r.steps, step)
	}
	return nil
}

// Get returns the step registered under id
func (r *Registry) Get(id string) (Step, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.steps[i], true
}

// Has checks if a Step is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// List returns the steps in execution order
func (r *Registry) List() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// ListIDs returns the step IDs in execution order
func (r *Registry) ListIDs() []string {
	ids := make([]string, len(r.steps))
	for i, s := range r.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	return len(r.steps)
}
