package synth

import "errors"

var ErrInvalidConfig = errors.New("invalid synth config")
