package model

import "errors"

var (
	// ErrNoName is returned when a model is registered without a name.
	ErrNoName = errors.New("loom: model has no name")

	// ErrQualifiedName is returned when a model name itself contains the
	// namespace separator, which would make its action types ambiguous.
	ErrQualifiedName = errors.New("loom: model name contains '/'")

	// ErrDuplicateModel is returned when two models register the same name.
	ErrDuplicateModel = errors.New("loom: duplicate model name")

	// ErrDuplicateReducer is returned when two reducer keys of one model
	// qualify to the same action type.
	ErrDuplicateReducer = errors.New("loom: duplicate reducer key")
)
