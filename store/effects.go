package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/loomworks/loom"
	"github.com/loomworks/loom/model"
)

// effectBinding ties one model's effect to the action type it fires on.
type effectBinding struct {
	model string
	fn    loom.EffectFn
}

// buildEffectTable invokes every model's effects factory once and flattens
// the results into a single fully-qualified-type lookup. Bindings for a
// shared type keep model registration order, which is the documented effect
// invocation order.
func buildEffectTable(reg *model.Registry, h loom.Handle) (map[string][]effectBinding, error) {
	table := make(map[string][]effectBinding)
	for _, m := range reg.Models() {
		if m.Effects == nil {
			continue
		}
		seen := make(map[string]struct{})
		for key, fn := range m.Effects(h) {
			fq := loom.Qualify(m.Name, key)
			if _, dup := seen[fq]; dup {
				return nil, fmt.Errorf("%w: model %q, type %q", ErrDuplicateEffect, m.Name, fq)
			}
			seen[fq] = struct{}{}
			table[fq] = append(table[fq], effectBinding{model: m.Name, fn: fn})
		}
	}
	return table, nil
}

// runEffects starts every effect bound to the action's type. By the time an
// effect runs, the action's reducers have already been applied and the state
// replaced, so an effect reading the handle always observes its own model's
// post-reduction slice. Effect faults are isolated: a panic or returned
// error is logged and the remaining siblings still run.
func (s *Store) runEffects(action loom.Action) {
	for _, b := range s.effects[action.Type] {
		s.invoke(b, action)
	}
}

func (s *Store) invoke(b effectBinding, action loom.Action) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("effect panicked",
				zap.String("model", b.model),
				zap.String("actionType", action.Type),
				zap.Any("panic", r),
			)
		}
	}()
	if err := b.fn(action.Payload); err != nil {
		s.logger.Error("effect failed",
			zap.String("model", b.model),
			zap.String("actionType", action.Type),
			zap.Error(err),
		)
	}
}
