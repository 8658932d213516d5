package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		return -1
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("bench"),
				WithSubsystem("test"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.evaluations.WithLabelValues("api", "ok").Inc()

			Convey("Then collectors use the configured names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "bench_test_evaluations_total" {
						found = true
						labels := f.GetMetric()[0].GetLabel()
						var names []string
						for _, l := range labels {
							names = append(names, l.GetName())
						}
						So(strings.Join(names, ","), ShouldContainSubstring, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := globalManager.Load()
		SetEnabled(true)

		Convey("When recording an evaluation outcome", func() {
			before := value(m.truePositives)
			RecordEvaluation("api", "ok")
			RecordMatchCounts(3, 1, 2)
			ObserveScores(0.75, 0.6)
			RecordEvaluationLatency(1.5)

			Convey("Then the counters move", func() {
				So(value(m.truePositives), ShouldEqual, before+3)
				So(value(m.evaluations.WithLabelValues("api", "ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording job and queue activity", func() {
			So(func() {
				RecordJobEnqueued()
				RecordJobCompleted()
				RecordJobFailed("not_found")
				UpdateStoredReports(4)
				UpdateQueueSize(2)
				UpdateQueueCapacity(10)
				RecordQueueEnqueueError("full")
				UpdateWorkerCount(3)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(12)
				RecordValidation("ok")
				RecordHTTPRequest("/evaluations", "POST", "200")
				RecordHTTPRequestDuration("/evaluations", "POST", "200", 3)
				RecordErrorByComponent("worker", "internal")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)

			So(value(m.queueCapacity), ShouldEqual, 10)
			So(value(m.storedReports), ShouldEqual, 4)
			So(value(m.systemGoroutineCount), ShouldEqual, 12)
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := value(m.jobsCompleted)
			RecordJobCompleted()

			Convey("Then nothing changes", func() {
				So(value(m.jobsCompleted), ShouldEqual, before)
			})
		})

		Convey("Then the registry exposes detbench metrics", func() {
			RecordJobEnqueued()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "detbench_evaluator_jobs_enqueued_total")
		})
	})
}
