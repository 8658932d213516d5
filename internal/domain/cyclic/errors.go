package cyclic

import "errors"

var (
	ErrEmptySequence = errors.New("label sequence is empty")
	ErrEmptyLabel    = errors.New("label sequence contains an empty label")
)
