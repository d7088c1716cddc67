// Package model defines the static description of each state slice — its
// name, initial value, reducer table, and optional effects factory — and the
// Registry that routes dispatched actions across every registered model.
package model

import "github.com/loomworks/loom"

// Model is a named bundle owning one slice of the overall state.
//
// Reducer keys are bare suffixes ("increment") qualified to
// "<Name>/increment" at registration, or fully-qualified foreign keys
// ("auth/signedOut") used verbatim to react to another model's action.
// The same convention applies to the keys of the table returned by Effects.
type Model struct {
	// Name is the model's unique namespace within a registry. It is also the
	// key under which the model's slice lives in the state map.
	Name string

	// InitialState is the slice value before any dispatch, unless overridden
	// by hydrated data at store construction.
	InitialState any

	// Reducers maps action-type keys to reducer functions. At most one
	// reducer per fully-qualified type per model.
	Reducers map[string]loom.ReducerFn

	// Effects, when non-nil, builds the model's effect table once the store
	// handle exists. Keys follow the same qualification rules as Reducers.
	Effects loom.EffectsFactory
}
