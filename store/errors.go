package store

import "errors"

// ErrDuplicateEffect is returned when two effect keys of one model qualify
// to the same action type.
var ErrDuplicateEffect = errors.New("loom: duplicate effect key")
