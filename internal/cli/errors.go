package cli

import "errors"

// Sentinel kinds for CLI errors.
var (
	ErrNoTarget        = errors.New("one of --sequence-length or --scenario is required")
	ErrTwoTargets      = errors.New("--sequence-length and --scenario are mutually exclusive")
	ErrInvalidScenario = errors.New("invalid scenario file")
	ErrNoFiles         = errors.New("no log files given")
	ErrJobFailed       = errors.New("remote job failed")
)
