package store

import "go.uber.org/zap"

type options struct {
	logger    *zap.Logger
	overrides map[string]any
}

// Option configures a Store at construction.
type Option func(*options)

// WithLogger sets the logger used to report swallowed faults (effect
// failures, listener panics). Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOverrides merges externally supplied slices (typically a persisted
// snapshot decoded by persist.Load) over the models' initial state. Only
// keys naming a registered model are applied; unpersisted models fall back
// to their declared initial value.
func WithOverrides(overrides map[string]any) Option {
	return func(o *options) {
		o.overrides = overrides
	}
}
