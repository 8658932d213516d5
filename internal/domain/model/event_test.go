package model_test

import (
	"testing"

	model "github.com/okian/detbench/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPatternSpec(t *testing.T) {
	convey.Convey("Given a cyclic pattern", t, func() {
		spec := model.PatternSpec{{Label: "wifi", Distance: 10}, {Label: "lora", Distance: 5}, {Label: "zigbee", Distance: 7}}

		convey.Convey("When asking for its labels", func() {
			labels := spec.Labels()

			convey.Convey("Then they keep pattern order", func() {
				convey.So(labels, convey.ShouldResemble, []string{"wifi", "lora", "zigbee"})
			})
		})

		convey.Convey("When the pattern is empty", func() {
			convey.So(model.PatternSpec{}.Labels(), convey.ShouldBeEmpty)
		})
	})
}

func TestMatchResult_Matches(t *testing.T) {
	convey.Convey("Given a result with unordered matches", t, func() {
		res := model.MatchResult{
			CorrectMatches: map[int]model.Sample{
				30:  {Offset: 33, Name: "b"},
				0:   {Offset: 2, Name: "a"},
				120: {Offset: 118, Name: "a"},
			},
		}

		convey.Convey("Then Matches orders them by expected offset", func() {
			got := res.Matches()
			convey.So(got, convey.ShouldResemble, []model.Match{
				{ExpectedOffset: 0, Sample: model.Sample{Offset: 2, Name: "a"}},
				{ExpectedOffset: 30, Sample: model.Sample{Offset: 33, Name: "b"}},
				{ExpectedOffset: 120, Sample: model.Sample{Offset: 118, Name: "a"}},
			})
		})
	})
}

func TestReport_Percent(t *testing.T) {
	convey.Convey("Given a fractional report", t, func() {
		r := model.Report{TruePositives: 3, FalsePositives: 1, Precision: 0.75, Recall: 0.5, F1: 0.6}

		convey.Convey("Then Percent scales only the ratios", func() {
			p := r.Percent()
			convey.So(p.Precision, convey.ShouldAlmostEqual, 75.0)
			convey.So(p.Recall, convey.ShouldAlmostEqual, 50.0)
			convey.So(p.F1, convey.ShouldAlmostEqual, 60.0)
			convey.So(p.TruePositives, convey.ShouldEqual, 3)
			convey.So(r.Precision, convey.ShouldEqual, 0.75)
		})
	})
}
