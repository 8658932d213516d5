package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrSamplesAndLog  = errors.New("samples and log are mutually exclusive")
	ErrLimitExceeded  = errors.New("limit exceeds maximum")
	ErrMissingJobID   = errors.New("missing job id")
	ErrInvalidQueryNo = errors.New("query parameter must be an integer")
)
