// Package loom is a minimal client-side state container for Go.
//
// A loom store holds a single state tree split into named slices, one per
// model. The tree is updated only through dispatched actions: each action is
// routed to the reducers that registered for its type, the resulting state
// replaces the old snapshot atomically, exactly one change notification is
// published, and then any matching effects run.
//
// # Actions and routing
//
// An Action is a tagged value: a type string plus an optional payload. The
// type string is the sole routing key and follows the "<model>/<suffix>"
// convention. A model's own reducers are registered under bare suffixes and
// qualified automatically; a key that is already qualified subscribes to
// another model's action (an explicit cross-model reaction).
//
// # Reducers and effects
//
// Reducers are pure functions from (slice, payload) to a new slice. They run
// synchronously and must complete before the dispatch call returns. Effects
// run after the state swap and the change notification, so an effect reading
// the store always observes the reducers' output for the action that
// triggered it. Effects may dispatch further actions; each nested dispatch
// runs the full pipeline at the point of call.
//
// # Collaborators
//
// External collaborators (UI bindings, persistence) subscribe to the change
// notification channel and never touch the routing machinery directly. The
// persist subpackage implements the persistence collaborator: filtered,
// transformed, debounced writes of the state tree to a pluggable storage
// backend, and hydration of a new store from a previous write.
//
// Example:
//
//	reg, _ := model.NewRegistry(counterModel)
//	st, _ := store.New(reg)
//	st.Dispatch(loom.Action{Type: "counter/increment"})
package loom
