package eventlog

import "errors"

var (
	ErrMalformedLine = errors.New("malformed log line")
	ErrFileNotFound  = errors.New("log file not found")
)
