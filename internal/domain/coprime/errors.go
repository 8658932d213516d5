package coprime

import "errors"

// Sentinel kinds for this package.
var (
	ErrInvalidModulus = errors.New("modulus must be at least 1")
)
