// Package scenario derives the evaluation parameters of one benchmark run from
// the length of the sync sequence the detector searches for.
package scenario

import (
	"fmt"

	"github.com/okian/detbench/internal/domain/coprime"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

// Defaults used by the benchmark harness.
const (
	DefaultInterval    = 30_000
	DefaultPadding     = 60
	DefaultStartOffset = 30
	DefaultSpan        = 1_000_000
)

// Params shape the schedule. Every label is emitted Interval + 2L + Padding
// after the previous one, where L is the sequence length.
type Params struct {
	Labels      []string
	Interval    int
	Padding     int
	StartOffset int
	Span        int
}

// DefaultParams returns the wifi/lora/zigbee harness parameters.
func DefaultParams() Params {
	return Params{
		Labels:      []string{"wifi", "lora", "zigbee"},
		Interval:    DefaultInterval,
		Padding:     DefaultPadding,
		StartOffset: DefaultStartOffset,
		Span:        DefaultSpan,
	}
}

// Scenario is everything needed to generate and score one run.
type Scenario struct {
	SequenceLength int               `json:"sequence_length"`
	Pattern        model.PatternSpec `json:"pattern"`
	StartOffset    int               `json:"start_offset"`
	MaxOffset      int               `json:"max_offset"`
	SyncRoot       int               `json:"sync_root"`
	Roots          map[string]int    `json:"roots"`
}

// Build derives the scenario for a sequence of length sequenceLength. The
// first coprime root of the length seeds the sync sequence and the following
// ones seed each label in order.
func Build(p Params, sequenceLength int) (Scenario, error) {
	const op = "scenario.build"
	if sequenceLength <= 0 {
		return Scenario{}, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: %d", ErrInvalidSequenceLength, sequenceLength))
	}
	if len(p.Labels) == 0 {
		return Scenario{}, errkind.WrapKind(op, errkind.ErrMalformed, ErrNoLabels)
	}
	if p.Interval < 0 || p.Padding < 0 || p.StartOffset < 0 || p.Span <= 0 {
		return Scenario{}, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: interval=%d padding=%d start=%d span=%d", ErrInvalidParams, p.Interval, p.Padding, p.StartOffset, p.Span))
	}

	distance := p.Interval + 2*sequenceLength + p.Padding
	spec := make(model.PatternSpec, len(p.Labels))
	for i, l := range p.Labels {
		spec[i] = model.PatternEntry{Label: l, Distance: distance}
	}

	roots, err := coprime.Roots(sequenceLength, len(p.Labels)+1)
	if err != nil {
		return Scenario{}, errkind.Wrap(op, err)
	}
	byLabel := make(map[string]int, len(p.Labels))
	for i, l := range p.Labels {
		byLabel[l] = roots[i+1]
	}

	return Scenario{
		SequenceLength: sequenceLength,
		Pattern:        spec,
		StartOffset:    p.StartOffset,
		MaxOffset:      p.Span - 4*sequenceLength - p.Padding,
		SyncRoot:       roots[0],
		Roots:          byLabel,
	}, nil
}
