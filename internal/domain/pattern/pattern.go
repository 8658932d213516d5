// Package pattern projects a cyclic (label, distance) pattern onto a ground-truth
// schedule of expected events.
package pattern

import (
	"fmt"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

// Validate checks that spec is non-empty and every entry has a label and a
// positive distance.
func Validate(spec model.PatternSpec) error {
	const op = "pattern.validate"
	if len(spec) == 0 {
		return errkind.WrapKind(op, errkind.ErrMalformed, ErrEmptyPattern)
	}
	for i, e := range spec {
		if e.Label == "" {
			return errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("entry %d: %w", i, ErrEmptyLabel))
		}
		if e.Distance <= 0 {
			return errkind.WrapKind(op, errkind.ErrMalformed,
				fmt.Errorf("entry %d (%s): %w: %d", i, e.Label, ErrNonPositiveDistance, e.Distance))
		}
	}
	return nil
}

// Expected walks spec cyclically from start. For each entry it emits
// (label, current), advances current by the entry distance and stops as soon as
// current reaches max, so the last cycle may be cut short. start >= max yields
// an empty schedule.
func Expected(spec model.PatternSpec, start, max int) ([]model.ExpectedEvent, error) {
	const op = "pattern.expected"
	if err := Validate(spec); err != nil {
		return nil, errkind.Wrap(op, err)
	}
	if start < 0 {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %d", ErrNegativeStart, start))
	}
	if start >= max {
		return []model.ExpectedEvent{}, nil
	}

	out := make([]model.ExpectedEvent, 0, Count(spec, start, max))
	cur := start
	for {
		for _, e := range spec {
			out = append(out, model.ExpectedEvent{Label: e.Label, Offset: cur})
			// cur < max here, so max-cur cannot overflow.
			if e.Distance >= max-cur {
				return out, nil
			}
			cur += e.Distance
		}
	}
}

// Count returns how many events Expected would emit for a valid spec without
// allocating them. It returns 0 for invalid input.
func Count(spec model.PatternSpec, start, max int) int {
	if Validate(spec) != nil || start < 0 || start >= max {
		return 0
	}
	span := max - start

	// Whole cycles fit only when the period does not exceed the span.
	period, whole := 0, true
	for _, e := range spec {
		if e.Distance > span-period {
			whole = false
			break
		}
		period += e.Distance
	}

	n, cur := 0, start
	if whole {
		cycles := span / period
		n = cycles * len(spec)
		cur = start + cycles*period
	}
	for _, e := range spec {
		if cur >= max {
			break
		}
		n++
		if e.Distance >= max-cur {
			break
		}
		cur += e.Distance
	}
	return n
}
