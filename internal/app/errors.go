package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrNoTarget        = errors.New("either a pattern or a sequence length is required")
	ErrEmptyPath       = errors.New("job path is empty")
	ErrCountTooLarge   = errors.New("coprime count exceeds limit")
	ErrInvalidListSize = errors.New("list limit must be positive")
	ErrScheduleTooLong = errors.New("expected schedule exceeds limit")
	ErrPathOutsideRoot = errors.New("job path is outside the log root")
)
