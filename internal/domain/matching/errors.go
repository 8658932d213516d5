package matching

import "errors"

var ErrNegativeTolerance = errors.New("tolerance must not be negative")
