package operations

import (
	"fmt"
	"sync"
)

// Registry holds the registered pipeline steps and derives their execution
// order from declared dependencies.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // registration order, used as a stable tiebreak
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Registering the same ID twice is an error.
func (r *Registry) Register(step Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	if _, exists := r.steps[step.ID()]; exists {
		return fmt.Errorf("step %s already registered", step.ID())
	}
	r.steps[step.ID()] = step
	r.order = append(r.order, step.ID())
	return nil
}

// Get returns a step by ID.
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %s not registered", id)
	}
	return step, nil
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// DependencyOrder returns the steps topologically sorted by their declared
// dependencies, with registration order breaking ties, so execution is
// deterministic.
func (r *Registry) DependencyOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		for _, dep := range r.steps[id].Dependencies() {
			if _, ok := r.steps[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unregistered step %s", id, dep)
			}
		}
	}

	resolved := make([]Step, 0, len(r.steps))
	done := make(map[string]bool, len(r.steps))
	visiting := make(map[string]bool, len(r.steps))

	var visit func(id string) error
	visit = func(id string) error {
		if done[id] {
			return nil
		}
		if visiting[id] {
			return fmt.Errorf("dependency cycle through step %s", id)
		}
		visiting[id] = true
		for _, dep := range r.steps[id].Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[id] = false
		done[id] = true
		resolved = append(resolved, r.steps[id])
		return nil
	}

	for _, id := range r.order {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}
