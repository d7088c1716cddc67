package model

import (
	"fmt"

	"github.com/loomworks/loom"
)

// reducerBinding ties one model's reducer to the slice it may replace.
type reducerBinding struct {
	model string
	fn    loom.ReducerFn
}

// Registry holds every registered model and the flat routing table mapping
// each fully-qualified action type to the reducers bound to it. The table is
// built once at registration time, so routing a dispatch is a single map
// lookup; own-namespace and cross-model subscriptions are structurally
// identical entries.
type Registry struct {
	models   []Model
	byName   map[string]int
	reducers map[string][]reducerBinding
}

// NewRegistry validates and registers the given models in order. Model
// registration order is the order effects and reducers fire in for a shared
// action type, so it is part of the registry's contract.
func NewRegistry(models ...Model) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]int, len(models)),
		reducers: make(map[string][]reducerBinding),
	}
	for _, m := range models {
		if err := r.register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(m Model) error {
	if m.Name == "" {
		return ErrNoName
	}
	if loom.IsQualified(m.Name) {
		return fmt.Errorf("%w: %q", ErrQualifiedName, m.Name)
	}
	if _, exists := r.byName[m.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, m.Name)
	}
	r.byName[m.Name] = len(r.models)
	r.models = append(r.models, m)

	// A map literal cannot carry duplicate keys, so the only reachable
	// collision is a bare key qualifying to the same type as a verbatim
	// foreign-namespaced key of the same model.
	seen := make(map[string]struct{}, len(m.Reducers))
	for key, fn := range m.Reducers {
		fq := loom.Qualify(m.Name, key)
		if _, dup := seen[fq]; dup {
			return fmt.Errorf("%w: model %q, type %q", ErrDuplicateReducer, m.Name, fq)
		}
		seen[fq] = struct{}{}
		r.reducers[fq] = append(r.reducers[fq], reducerBinding{model: m.Name, fn: fn})
	}
	return nil
}

// Models returns the registered models in registration order.
func (r *Registry) Models() []Model {
	return r.models
}

// Has reports whether a model with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// InitialState builds a fresh state map from each model's declared initial
// slice.
func (r *Registry) InitialState() loom.State {
	state := make(loom.State, len(r.models))
	for _, m := range r.models {
		state[m.Name] = m.InitialState
	}
	return state
}

// Reduce computes the next state for one action. Every model is evaluated
// against the same action in a single synchronous pass. Models with no
// matching reducer keep their slice by reference, so consumers can detect
// "did this slice change" by identity comparison. A zero-match action
// returns the input map itself and matched=false.
func (r *Registry) Reduce(state loom.State, action loom.Action) (next loom.State, matched bool) {
	bindings := r.reducers[action.Type]
	if len(bindings) == 0 {
		return state, false
	}
	next = make(loom.State, len(state))
	for k, v := range state {
		next[k] = v
	}
	for _, b := range bindings {
		next[b.model] = b.fn(next[b.model], action.Payload)
	}
	return next, true
}
