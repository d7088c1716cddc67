// Package store implements the dispatch engine: it owns the current state
// snapshot, routes each dispatched action through the registry's reducers,
// installs the resulting state atomically, publishes exactly one change
// notification, and then starts the matching effects.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/loomworks/loom"
	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/notify"
)

// Store coordinates the reducer router and the effect dispatcher per
// dispatch call.
//
// IMPORTANT: Dispatch is intentionally NOT safe for concurrent use. The
// pipeline assumes a single logical thread of control with cooperative
// suspension: reducers and notifications run to completion without
// suspension, and only effect bodies may suspend, after the pipeline has
// already returned control to the dispatch caller. Share a Store across
// goroutines only through the snapshots it publishes.
type Store struct {
	registry *model.Registry
	hub      *notify.Hub
	logger   *zap.Logger
	state    loom.State
	effects  map[string][]effectBinding
}

// New builds a Store from the registry's models. Construction is two-phase:
// the initial state (with any hydration overrides merged over matching model
// slices) and the dispatch handle are built first, then each model's effects
// factory is invoked exactly once with that handle, so an effect can see the
// whole combined state despite being authored inside one model.
func New(reg *model.Registry, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	state := reg.InitialState()
	for name, slice := range o.overrides {
		if reg.Has(name) {
			state[name] = slice
		}
	}

	s := &Store{
		registry: reg,
		hub:      notify.New(o.logger),
		logger:   o.logger,
		state:    state,
	}
	effects, err := buildEffectTable(reg, handle{s})
	if err != nil {
		return nil, err
	}
	s.effects = effects
	return s, nil
}

// State returns the current snapshot: either the post-construction initial
// state or the result of the most recently completed dispatch: never a
// partially-applied mix. Callers must not mutate it.
func (s *Store) State() loom.State {
	return s.state
}

// Subscribe registers a change-notification listener and returns its cancel
// func. Listeners receive every subsequent dispatch's event in subscription
// order.
func (s *Store) Subscribe(fn notify.Listener) func() {
	return s.hub.Subscribe(fn)
}

// Dispatch runs the full pipeline for one action:
//
//  1. reducing: every matching reducer computes its model's next slice in
//     one synchronous pass over a staging copy of the state.
//  2. install: the staging copy replaces the stored state. A reducer panic
//     aborts the dispatch before this point, leaving the state unchanged,
//     and is returned as an error.
//  3. notifying: one change notification carrying the action and the
//     installed state.
//  4. effecting: matching effects start in model registration order. Their
//     faults are logged, never returned; their asynchronous work is not
//     awaited.
//
// Effects may call Dispatch again re-entrantly; the nested dispatch runs
// this entire pipeline at the point of call, against the state as it stands
// then. There is no queueing and no batching.
func (s *Store) Dispatch(action loom.Action) error {
	next, err := s.reduce(action)
	if err != nil {
		return err
	}
	s.state = next
	s.hub.Publish(loom.Event{Action: action, State: next, At: loom.Now()})
	s.runEffects(action)
	return nil
}

// reduce runs the router pass, converting a reducer panic into an error so
// the caller can surface the failed dispatch without installing a partial
// state.
func (s *Store) reduce(action loom.Action) (next loom.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("loom: reducer fault on %q: %v", action.Type, r)
		}
	}()
	next, _ = s.registry.Reduce(s.state, action)
	return next, nil
}

// handle is the opaque store surface passed to effect factories.
type handle struct {
	s *Store
}

func (h handle) State() loom.State {
	return h.s.State()
}

func (h handle) Dispatch(action loom.Action) error {
	return h.s.Dispatch(action)
}
