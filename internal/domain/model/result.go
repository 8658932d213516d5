package model

import "sort"

// FalsePositive is an observed sample that matched no expected event.
type FalsePositive struct {
	Offset int    `json:"offset"`
	Sample Sample `json:"sample"`
}

// Match pairs an expected offset with the sample that satisfied it.
type Match struct {
	ExpectedOffset int    `json:"expected_offset"`
	Sample         Sample `json:"sample"`
}

// MatchResult is the outcome of one evaluation. It is not mutated after return.
type MatchResult struct {
	FalsePositives []FalsePositive
	FalseNegatives []ExpectedEvent
	CorrectMatches map[int]Sample // keyed by ExpectedEvent.Offset
}

// Matches returns the correct matches ordered by expected offset.
func (r MatchResult) Matches() []Match {
	out := make([]Match, 0, len(r.CorrectMatches))
	for off, s := range r.CorrectMatches {
		out = append(out, Match{ExpectedOffset: off, Sample: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpectedOffset < out[j].ExpectedOffset })
	return out
}

// Report holds the count-based scores derived from a MatchResult.
type Report struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// Percent returns the report with precision, recall and F1 scaled to 0-100.
func (r Report) Percent() Report {
	const scale = 100
	r.Precision *= scale
	r.Recall *= scale
	r.F1 *= scale
	return r
}
