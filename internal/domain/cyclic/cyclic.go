// Package cyclic classifies a flat stream of labelled samples against a
// repeating label sequence without looking at offsets.
package cyclic

import (
	"fmt"
	"strings"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

// DefaultSequence is the radio cycle the detector under test emits.
var DefaultSequence = []string{"wifi", "lora", "zigbee"}

// Result is the validator state after a stream has been observed.
type Result struct {
	ExpectedIndex  int            `json:"expected_index"`
	FalsePositives []model.Sample `json:"false_positives"`
	FalseNegatives []string       `json:"false_negatives"`
}

// Validator is a small state machine over a label cycle. It is not safe for
// concurrent use.
type Validator struct {
	sequence []string
	index    int
	fps      []model.Sample
}

// New returns a validator for sequence. Labels are compared case-insensitively.
func New(sequence []string) (*Validator, error) {
	const op = "cyclic.new"
	if len(sequence) == 0 {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, ErrEmptySequence)
	}
	seq := make([]string, len(sequence))
	for i, l := range sequence {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("position %d: %w", i, ErrEmptyLabel))
		}
		seq[i] = l
	}
	return &Validator{sequence: seq, fps: make([]model.Sample, 0)}, nil
}

// NewFromPattern uses the label cycle of spec.
func NewFromPattern(spec model.PatternSpec) (*Validator, error) {
	return New(spec.Labels())
}

// Observe feeds one sample. A sample whose label is the next expected one
// advances the cycle; any other sample is a false positive and leaves the
// position unchanged.
func (v *Validator) Observe(s model.Sample) {
	if strings.EqualFold(s.Name, v.sequence[v.index]) {
		v.index = (v.index + 1) % len(v.sequence)
		return
	}
	v.fps = append(v.fps, s)
}

// Result reports the current state. When the stream stops mid-cycle the labels
// still owed by that cycle are false negatives. Cycles skipped entirely are not
// detected: at most one partial cycle is ever reported.
func (v *Validator) Result() Result {
	res := Result{
		ExpectedIndex:  v.index,
		FalsePositives: append([]model.Sample(nil), v.fps...),
		FalseNegatives: []string{},
	}
	if res.FalsePositives == nil {
		res.FalsePositives = []model.Sample{}
	}
	if v.index != 0 {
		res.FalseNegatives = append(res.FalseNegatives, v.sequence[v.index:]...)
	}
	return res
}

// Reset returns the validator to the start of the cycle.
func (v *Validator) Reset() {
	v.index = 0
	v.fps = v.fps[:0]
}

// Validate runs a fresh validator over samples.
func Validate(sequence []string, samples []model.Sample) (Result, error) {
	v, err := New(sequence)
	if err != nil {
		return Result{}, errkind.Wrap("cyclic.validate", err)
	}
	for _, s := range samples {
		v.Observe(s)
	}
	return v.Result(), nil
}
