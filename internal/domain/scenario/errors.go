package scenario

import "errors"

var (
	ErrInvalidSequenceLength = errors.New("sequence length must be positive")
	ErrNoLabels              = errors.New("scenario needs at least one label")
	ErrInvalidParams         = errors.New("invalid scenario parameters")
)
