// Package matching reconciles observed samples against the expected schedule of
// a cyclic pattern.
package matching

import (
	"fmt"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/pattern"
	"github.com/okian/detbench/pkg/errkind"
)

// DefaultTolerance is the window, in offset units, used when a caller does not
// choose one.
const DefaultTolerance = 250

// Input is everything one evaluation needs.
type Input struct {
	Pattern     model.PatternSpec
	StartOffset int
	MaxOffset   int
	Samples     []model.Sample
	Tolerance   int
}

// Evaluate matches samples in log order against the expected events of the
// pattern. A sample consumes the first outstanding candidate, in generation
// order, with the same label and |offset difference| <= Tolerance. Samples with
// no candidate become false positives; candidates never consumed become false
// negatives in generation order.
//
// Matching is greedy and order-sensitive: when two candidates fit one sample
// the earlier generated one wins, even if the later one is closer.
func Evaluate(in Input) (model.MatchResult, error) {
	const op = "matching.evaluate"
	if in.Tolerance < 0 {
		return model.MatchResult{}, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: %d", ErrNegativeTolerance, in.Tolerance))
	}
	expected, err := pattern.Expected(in.Pattern, in.StartOffset, in.MaxOffset)
	if err != nil {
		return model.MatchResult{}, errkind.Wrap(op, err)
	}

	p := newPool(expected)
	res := model.MatchResult{
		FalsePositives: make([]model.FalsePositive, 0),
		CorrectMatches: make(map[int]model.Sample, len(expected)),
	}
	for _, s := range in.Samples {
		if cand, ok := p.take(s.Name, s.Offset, in.Tolerance); ok {
			res.CorrectMatches[cand.Offset] = s
			continue
		}
		res.FalsePositives = append(res.FalsePositives, model.FalsePositive{Offset: s.Offset, Sample: s})
	}
	res.FalseNegatives = p.outstanding()
	return res, nil
}
