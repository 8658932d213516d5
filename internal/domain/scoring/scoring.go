// Package scoring derives count-based precision, recall and F1 from a match result.
package scoring

import "github.com/okian/detbench/internal/domain/model"

// Score counts the outcome of one evaluation and derives its ratios.
func Score(res model.MatchResult) model.Report {
	tp := len(res.CorrectMatches)
	fp := len(res.FalsePositives)
	fn := len(res.FalseNegatives)
	p := Precision(tp, fp)
	r := Recall(tp, fn)
	return model.Report{
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
		Precision:      p,
		Recall:         r,
		F1:             F1(p, r),
	}
}

// Precision is tp/(tp+fp). Nothing reported means nothing wrongly reported, so
// an empty denominator scores 1.
func Precision(tp, fp int) float64 {
	return ratio(tp, tp+fp)
}

// Recall is tp/(tp+fn), 1 when nothing was expected.
func Recall(tp, fn int) float64 {
	return ratio(tp, tp+fn)
}

// F1 is the harmonic mean of p and r, 0 when both are 0.
func F1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}
