// Package model contains domain models passed between layers.
package model

// Sample is one event reported by the detector under test.
// Order of appearance in the log is significant.
type Sample struct {
	Offset int    `json:"offset"`
	Name   string `json:"name"`
}

// ExpectedEvent is one ground-truth event projected from a pattern.
type ExpectedEvent struct {
	Label  string `json:"label"`
	Offset int    `json:"offset"`
}

// PatternEntry is one step of a cyclic pattern: emit Label, then advance by Distance.
type PatternEntry struct {
	Label    string `json:"label" yaml:"label"`
	Distance int    `json:"distance" yaml:"distance"`
}

// PatternSpec is an ordered cycle of entries repeated until a maximum offset.
// It is shared read-only between evaluations.
type PatternSpec []PatternEntry

// Labels returns the label cycle of the pattern in order.
func (p PatternSpec) Labels() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.Label
	}
	return out
}
