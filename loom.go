package loom

import "strings"

// Action describes one event to process: a routing type plus an optional
// payload. Actions are immutable once constructed; type uniqueness is not
// required, several models may bind the same type.
type Action struct {
	Type    string
	Payload any
}

// State maps each model name to that model's current slice. It is the
// store's single source of truth: replaced on every successful dispatch,
// never mutated in place. Slices are immutable by convention; only the
// owning model's reducers may produce a new value for a slice.
type State map[string]any

// ReducerFn computes a model's next slice from its current slice and an
// action payload. Reducers must be pure: no I/O, no mutation of their input,
// and no panics for normal inputs. A panicking reducer aborts the whole
// dispatch (see store.Dispatch).
type ReducerFn func(slice any, payload any) any

// EffectFn runs side work for an action after reduction. The payload is
// passed explicitly; an effect never reads it from an enclosing scope.
// A returned error is logged by the dispatcher and not propagated to the
// dispatch caller. Asynchronous work belongs in goroutines the effect
// spawns and owns, failures included.
type EffectFn func(payload any) error

// EffectsFactory builds a model's effect table. It is invoked exactly once,
// at store construction, with the finished store handle, so effects can
// close over the whole combined state and dispatch surface.
type EffectsFactory func(h Handle) map[string]EffectFn

// Handle is the store surface supplied to effect factories: the current
// snapshot and re-entrant dispatch, nothing else.
type Handle interface {
	State() State
	Dispatch(Action) error
}

// Event is the change notification published once per dispatch. State is the
// exact map installed by that dispatch, so subscribers can cache by identity.
type Event struct {
	Action Action
	State  State
	At     TimeSpan
}

// Qualify builds the fully-qualified action type for a model's own key.
// Keys that already carry a namespace are returned verbatim; they subscribe
// to another model's action.
func Qualify(model, key string) string {
	if IsQualified(key) {
		return key
	}
	return model + "/" + key
}

// IsQualified reports whether key is already a fully-qualified action type.
func IsQualified(key string) bool {
	return strings.Contains(key, "/")
}
