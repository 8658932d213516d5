package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/detbench/internal/adapters/http/api"
	"github.com/okian/detbench/internal/adapters/repository"
	"github.com/okian/detbench/internal/domain/model"
	app "github.com/okian/detbench/internal/app"
	"github.com/okian/detbench/pkg/logger"
)

// newEvaluator serves a started service over httptest.
func newEvaluator(t *testing.T, logRoot string) *httptest.Server {
	t.Helper()
	svc := app.New(app.WithWorkerCount(2), app.WithQueueSize(16), app.WithLogRoot(logRoot))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running evaluator", t, func() {
		dir := t.TempDir()
		srv := newEvaluator(t, dir)
		perfect := writeLog(t, dir, "perfect.log", radioLog)
		sparse := writeLog(t, dir, "sparse.log", radioLog[:2])
		tol := 5

		cfg := RemoteConfig{
			BaseURL: srv.URL,
			Request: jobRequest{
				Pattern:   model.PatternSpec{
					{Label: "wifi", Distance: 100},
					{Label: "lora", Distance: 100},
				},
				MaxOffset: 400,
				Tolerance: &tol,
			},
			Workers:      2,
			Timeout:      5 * time.Second,
			PollInterval: 10 * time.Millisecond,
		}

		Convey("When both logs are submitted", func() {
			cfg.Files = []string{perfect, sparse}
			results, stats, err := RunRemote(context.Background(), cfg, logger.Get())

			Convey("Then both finish in file order", func() {
				So(err, ShouldBeNil)
				So(stats.Done, ShouldEqual, 2)
				So(stats.Failed, ShouldEqual, 0)
				So(results[0].Record.Status, ShouldEqual, repository.StatusDone)
				So(results[0].Record.Report.F1, ShouldEqual, 1.0)
				So(results[1].Record.Report.Recall, ShouldEqual, 0.5)
			})
		})

		Convey("When a log does not exist", func() {
			cfg.Files = []string{filepath.Join(dir, "missing.log")}
			results, stats, err := RunRemote(context.Background(), cfg, logger.Get())

			Convey("Then its job fails", func() {
				So(err, ShouldBeNil)
				So(stats.Failed, ShouldEqual, 1)
				So(results[0].Record.ErrorKind, ShouldEqual, "not_found")
				So(errors.Is(results[0].Err, ErrJobFailed), ShouldBeTrue)
			})
		})

		Convey("When the remote command is run", func() {
			scenarioPath := writeFile(t, dir, "radio.yaml", radioScenario)
			out, err := execute("remote", "--url", srv.URL, "--scenario", scenarioPath, "--poll", "10ms", perfect)

			Convey("Then the summary is rendered", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "perfect.log")
				So(out, ShouldContainSubstring, "f1 100.00%")
			})
		})
	})

	Convey("Given no evaluator", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, _, err := RunRemote(context.Background(), RemoteConfig{
			BaseURL: srv.URL,
			Files:   []string{"a.log"},
			Timeout: time.Second,
		}, logger.Get())

		Convey("Then the health check fails first", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}

func TestVerifyRanking(t *testing.T) {
	Convey("Given our scored records", t, func() {
		results := []RemoteResult{
			{Record: repository.Record{JobID: "a", Report: reportWithF1(0.4)}},
			{Record: repository.Record{JobID: "b", Report: reportWithF1(0.9)}},
			{Record: repository.Record{JobID: "c"}},
		}

		Convey("When the server lists a better or equal job first", func() {
			listed := []repository.Record{{JobID: "x", Report: reportWithF1(0.9)}}
			So(verifyRanking(results, listed), ShouldBeNil)
		})

		Convey("When the server lists a worse job first", func() {
			listed := []repository.Record{{JobID: "a", Report: reportWithF1(0.4)}}
			err := verifyRanking(results, listed)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "job b")
		})

		Convey("When nothing is listed", func() {
			So(verifyRanking(results, nil), ShouldBeNil)
		})
	})
}

func reportWithF1(f1 float64) *model.Report {
	return &model.Report{F1: f1}
}
