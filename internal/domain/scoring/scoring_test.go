package scoring_test

import (
	"testing"

	"github.com/okian/detbench/internal/domain/model"
	scoring "github.com/okian/detbench/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given a match result with mixed outcomes", t, func() {
		res := model.MatchResult{
			CorrectMatches: map[int]model.Sample{0: {Offset: 1, Name: "a"}, 10: {Offset: 12, Name: "b"}, 20: {Offset: 20, Name: "a"}},
			FalsePositives: []model.FalsePositive{{Offset: 99, Sample: model.Sample{Offset: 99, Name: "c"}}},
			FalseNegatives: []model.ExpectedEvent{{Label: "b", Offset: 30}, {Label: "a", Offset: 40}, {Label: "b", Offset: 50}},
		}

		Convey("When scoring it", func() {
			rep := scoring.Score(res)

			Convey("Then counts and ratios follow the definitions", func() {
				So(rep.TruePositives, ShouldEqual, 3)
				So(rep.FalsePositives, ShouldEqual, 1)
				So(rep.FalseNegatives, ShouldEqual, 3)
				So(rep.Precision, ShouldAlmostEqual, 0.75)
				So(rep.Recall, ShouldAlmostEqual, 0.5)
				So(rep.F1, ShouldAlmostEqual, 0.6)
			})
		})
	})

	Convey("Given an empty result", t, func() {
		rep := scoring.Score(model.MatchResult{})

		Convey("Then precision and recall fall back to 1", func() {
			So(rep.Precision, ShouldEqual, 1.0)
			So(rep.Recall, ShouldEqual, 1.0)
			So(rep.F1, ShouldEqual, 1.0)
		})
	})

	Convey("Given only false positives", t, func() {
		rep := scoring.Score(model.MatchResult{FalsePositives: []model.FalsePositive{{Offset: 1}}})

		Convey("Then precision is 0 and recall is vacuous", func() {
			So(rep.Precision, ShouldEqual, 0.0)
			So(rep.Recall, ShouldEqual, 1.0)
			So(rep.F1, ShouldEqual, 0.0)
		})
	})
}

func TestRatios(t *testing.T) {
	cases := []struct {
		tp, fp, fn int
		p, r       float64
	}{
		{0, 0, 0, 1, 1},
		{0, 5, 0, 0, 1},
		{0, 0, 5, 1, 0},
		{4, 4, 12, 0.5, 0.25},
	}
	for _, c := range cases {
		if got := scoring.Precision(c.tp, c.fp); got != c.p {
			t.Errorf("Precision(%d,%d) = %v, want %v", c.tp, c.fp, got, c.p)
		}
		if got := scoring.Recall(c.tp, c.fn); got != c.r {
			t.Errorf("Recall(%d,%d) = %v, want %v", c.tp, c.fn, got, c.r)
		}
	}
	if scoring.F1(0, 0) != 0 {
		t.Error("F1(0,0) should be 0")
	}
}
