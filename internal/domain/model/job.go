package model

import "time"

// Job asks the batch layer to score one observed log against a pattern.
type Job struct {
	ID             string
	Path           string
	SequenceLength int
	Pattern        PatternSpec
	StartOffset    int
	MaxOffset      int
	Tolerance      int
	SubmittedAt    time.Time
}
