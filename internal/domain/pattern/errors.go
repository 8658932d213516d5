package pattern

import "errors"

var (
	ErrEmptyPattern        = errors.New("pattern has no entries")
	ErrNonPositiveDistance = errors.New("pattern distance must be positive")
	ErrEmptyLabel          = errors.New("pattern label is empty")
	ErrNegativeStart       = errors.New("start offset is negative")
)
