package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/loomworks/loom"
	"github.com/loomworks/loom/model"
	"github.com/loomworks/loom/store"
)

func counterModel() model.Model {
	return model.Model{
		Name:         "counter",
		InitialState: 5,
		Reducers: map[string]loom.ReducerFn{
			"increment": func(s, _ any) any { return s.(int) + 1 },
			"add":       func(s, payload any) any { return s.(int) + payload.(int) },
		},
	}
}

func newStore(t *testing.T, models ...model.Model) *store.Store {
	t.Helper()
	reg, err := model.NewRegistry(models...)
	require.NoError(t, err)
	st, err := store.New(reg)
	require.NoError(t, err)
	return st
}

func TestDispatch_AppliesReducer(t *testing.T) {
	st := newStore(t, counterModel())

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	assert.Equal(t, 6, st.State()["counter"])

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/add", Payload: 4}))
	assert.Equal(t, 10, st.State()["counter"])
}

func TestDispatch_ReducerFaultLeavesStateUnchanged(t *testing.T) {
	st := newStore(t,
		counterModel(),
		model.Model{
			Name:         "broken",
			InitialState: "ok",
			Reducers: map[string]loom.ReducerFn{
				"counter/increment": func(s, _ any) any { panic("reducer boom") },
			},
		},
	)

	before := st.State()
	err := st.Dispatch(loom.Action{Type: "counter/increment"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reducer fault")
	assert.Contains(t, err.Error(), "counter/increment")

	// No partial slice update may survive the failed dispatch, even though
	// the counter reducer ran before the broken one could panic.
	assert.Equal(t, 5, st.State()["counter"])
	assert.Equal(t, "ok", st.State()["broken"])
	assert.Equal(t, before["counter"], st.State()["counter"])
}

func TestDispatch_ReducerFaultEmitsNoNotification(t *testing.T) {
	st := newStore(t,
		counterModel(),
		model.Model{
			Name:         "broken",
			InitialState: nil,
			Reducers: map[string]loom.ReducerFn{
				"counter/increment": func(s, _ any) any { panic("boom") },
			},
		},
	)

	notified := 0
	st.Subscribe(func(loom.Event) { notified++ })

	require.Error(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	assert.Equal(t, 0, notified)
}

func TestDispatch_NoOpKeepsSliceIdentity(t *testing.T) {
	entities := map[string]any{"1": "buy milk"}
	st := newStore(t, model.Model{Name: "todos", InitialState: entities})

	require.NoError(t, st.Dispatch(loom.Action{Type: "todos/unknown"}))

	after, ok := st.State()["todos"].(map[string]any)
	require.True(t, ok)
	entities["probe"] = true
	_, found := after["probe"]
	assert.True(t, found, "no-op dispatch must keep the slice by reference")
}

func TestDispatch_OneNotificationPerDispatch(t *testing.T) {
	st := newStore(t, counterModel())

	notified := 0
	var lastState loom.State
	st.Subscribe(func(e loom.Event) {
		notified++
		lastState = e.State
	})

	const n = 7
	for i := 0; i < n; i++ {
		require.NoError(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	}

	assert.Equal(t, n, notified)
	assert.Equal(t, 5+n, lastState["counter"])
}

func TestDispatch_NotificationCarriesInstalledState(t *testing.T) {
	st := newStore(t, counterModel())

	var event loom.Event
	st.Subscribe(func(e loom.Event) { event = e })

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/add", Payload: 3}))

	assert.Equal(t, "counter/add", event.Action.Type)
	assert.Equal(t, 3, event.Action.Payload)
	assert.Equal(t, 8, event.State["counter"])
	// The published map is the installed snapshot itself.
	event.State["probe"] = true
	_, ok := st.State()["probe"]
	assert.True(t, ok)
}

func TestEffect_ObservesOwnReducerResult(t *testing.T) {
	observed := -1
	st := newStore(t, model.Model{
		Name:         "counter",
		InitialState: 5,
		Reducers: map[string]loom.ReducerFn{
			"increment": func(s, _ any) any { return s.(int) + 1 },
		},
		Effects: func(h loom.Handle) map[string]loom.EffectFn {
			return map[string]loom.EffectFn{
				"increment": func(payload any) error {
					observed = h.State()["counter"].(int)
					return nil
				},
			}
		},
	})

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	assert.Equal(t, 6, observed, "effect must see its own reducer's output, not the pre-dispatch value")
}

func TestEffect_RunsAfterNotification(t *testing.T) {
	var order []string
	st := newStore(t, model.Model{
		Name:         "counter",
		InitialState: 0,
		Reducers: map[string]loom.ReducerFn{
			"increment": func(s, _ any) any {
				order = append(order, "reduce")
				return s.(int) + 1
			},
		},
		Effects: func(h loom.Handle) map[string]loom.EffectFn {
			return map[string]loom.EffectFn{
				"increment": func(any) error {
					order = append(order, "effect")
					return nil
				},
			}
		},
	})
	st.Subscribe(func(loom.Event) { order = append(order, "notify") })

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	assert.Equal(t, []string{"reduce", "notify", "effect"}, order)
}

func TestEffect_CrossModelOrderIsRegistrationOrder(t *testing.T) {
	var order []string
	effectFor := func(name string) loom.EffectsFactory {
		return func(h loom.Handle) map[string]loom.EffectFn {
			return map[string]loom.EffectFn{
				"auth/signedOut": func(any) error {
					order = append(order, name)
					return nil
				},
			}
		}
	}
	st := newStore(t,
		model.Model{Name: "auth", InitialState: nil, Effects: effectFor("auth")},
		model.Model{Name: "todos", InitialState: nil, Effects: effectFor("todos")},
		model.Model{Name: "settings", InitialState: nil, Effects: effectFor("settings")},
	)

	require.NoError(t, st.Dispatch(loom.Action{Type: "auth/signedOut"}))
	assert.Equal(t, []string{"auth", "todos", "settings"}, order)
}

func TestEffect_FaultIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	siblingRan := false
	reg, err := model.NewRegistry(
		model.Model{
			Name:         "counter",
			InitialState: 0,
			Reducers: map[string]loom.ReducerFn{
				"increment": func(s, _ any) any { return s.(int) + 1 },
			},
			Effects: func(h loom.Handle) map[string]loom.EffectFn {
				return map[string]loom.EffectFn{
					"increment": func(any) error { panic("effect boom") },
				}
			},
		},
		model.Model{
			Name:         "audit",
			InitialState: 0,
			Effects: func(h loom.Handle) map[string]loom.EffectFn {
				return map[string]loom.EffectFn{
					"counter/increment": func(any) error {
						siblingRan = true
						return nil
					},
				}
			},
		},
	)
	require.NoError(t, err)
	st, err := store.New(reg, store.WithLogger(zap.New(core)))
	require.NoError(t, err)

	// The panicking effect must not surface to the dispatch caller, must not
	// roll back the reducer's result, and must not stop its sibling.
	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/increment"}))
	assert.Equal(t, 1, st.State()["counter"])
	assert.True(t, siblingRan, "sibling effect for the same action must still run")
	require.GreaterOrEqual(t, logs.Len(), 1)
	assert.Contains(t, logs.All()[0].Message, "effect panicked")
}

func TestEffect_ReturnedErrorLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	reg, err := model.NewRegistry(model.Model{
		Name:         "sync",
		InitialState: nil,
		Effects: func(h loom.Handle) map[string]loom.EffectFn {
			return map[string]loom.EffectFn{
				"push": func(any) error { return assert.AnError },
			}
		},
	})
	require.NoError(t, err)
	st, err := store.New(reg, store.WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.NoError(t, st.Dispatch(loom.Action{Type: "sync/push"}))
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "effect failed")
}

func TestEffect_NestedDispatchInterleavesInCallOrder(t *testing.T) {
	var observed []int
	st := newStore(t,
		model.Model{
			Name:         "counter",
			InitialState: 0,
			Reducers: map[string]loom.ReducerFn{
				"increment": func(s, _ any) any { return s.(int) + 1 },
				"seed":      func(s, _ any) any { return 0 },
			},
		},
		model.Model{
			Name:         "first",
			InitialState: nil,
			Effects: func(h loom.Handle) map[string]loom.EffectFn {
				return map[string]loom.EffectFn{
					"counter/seed": func(any) error {
						err := h.Dispatch(loom.Action{Type: "counter/increment"})
						observed = append(observed, h.State()["counter"].(int))
						return err
					},
				}
			},
		},
		model.Model{
			Name:         "second",
			InitialState: nil,
			Effects: func(h loom.Handle) map[string]loom.EffectFn {
				return map[string]loom.EffectFn{
					"counter/seed": func(any) error {
						err := h.Dispatch(loom.Action{Type: "counter/increment"})
						observed = append(observed, h.State()["counter"].(int))
						return err
					},
				}
			},
		},
	)

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/seed"}))
	// Each sibling's nested dispatch observes and extends the other's result
	// in call order: there is no queue and no batching.
	assert.Equal(t, []int{1, 2}, observed)
	assert.Equal(t, 2, st.State()["counter"])
}

func TestEffect_NestedDispatchNotifiesPerDispatch(t *testing.T) {
	st := newStore(t,
		model.Model{
			Name:         "counter",
			InitialState: 0,
			Reducers: map[string]loom.ReducerFn{
				"seed":      func(s, _ any) any { return s },
				"increment": func(s, _ any) any { return s.(int) + 1 },
			},
			Effects: func(h loom.Handle) map[string]loom.EffectFn {
				return map[string]loom.EffectFn{
					"seed": func(any) error {
						return h.Dispatch(loom.Action{Type: "counter/increment"})
					},
				}
			},
		},
	)

	var types []string
	st.Subscribe(func(e loom.Event) { types = append(types, e.Action.Type) })

	require.NoError(t, st.Dispatch(loom.Action{Type: "counter/seed"}))
	// The nested dispatch completes its own reduce/notify phases at the
	// point it is issued, inside the outer dispatch's effecting phase.
	assert.Equal(t, []string{"counter/seed", "counter/increment"}, types)
}

func TestNew_DuplicateEffectKeyRejected(t *testing.T) {
	reg, err := model.NewRegistry(model.Model{
		Name:         "todos",
		InitialState: nil,
		Effects: func(h loom.Handle) map[string]loom.EffectFn {
			return map[string]loom.EffectFn{
				"clear":       func(any) error { return nil },
				"todos/clear": func(any) error { return nil },
			}
		},
	})
	require.NoError(t, err)

	_, err = store.New(reg)
	assert.ErrorIs(t, err, store.ErrDuplicateEffect)
}

func TestNew_OverridesMergeOverInitialState(t *testing.T) {
	reg, err := model.NewRegistry(
		model.Model{Name: "counter", InitialState: 5},
		model.Model{Name: "todos", InitialState: map[string]any{"entities": map[string]any{}}},
	)
	require.NoError(t, err)

	st, err := store.New(reg, store.WithOverrides(map[string]any{
		"counter": 42,
		"ghost":   "ignored", // not a registered model
	}))
	require.NoError(t, err)

	assert.Equal(t, 42, st.State()["counter"])
	assert.Equal(t, map[string]any{"entities": map[string]any{}}, st.State()["todos"])
	_, ok := st.State()["ghost"]
	assert.False(t, ok)
}

func TestDispatch_CrossModelReactionSingleNotification(t *testing.T) {
	st := newStore(t,
		model.Model{
			Name:         "auth",
			InitialState: map[string]any{"user": "alice"},
			Reducers: map[string]loom.ReducerFn{
				"signedOut": func(s, _ any) any { return map[string]any{"user": nil} },
			},
		},
		model.Model{
			Name:         "todos",
			InitialState: map[string]any{"entities": map[string]any{"1": "buy milk"}},
			Reducers: map[string]loom.ReducerFn{
				"auth/signedOut": func(s, _ any) any {
					return map[string]any{"entities": map[string]any{}}
				},
			},
		},
	)

	notified := 0
	var event loom.Event
	st.Subscribe(func(e loom.Event) {
		notified++
		event = e
	})

	require.NoError(t, st.Dispatch(loom.Action{Type: "auth/signedOut"}))
	require.Equal(t, 1, notified, "both slices change within one dispatch pass")
	assert.Nil(t, event.State["auth"].(map[string]any)["user"])
	assert.Empty(t, event.State["todos"].(map[string]any)["entities"])
}
