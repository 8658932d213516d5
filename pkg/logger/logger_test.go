package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected an error for a nil writer")
	}
}

func TestLoggerOutput(t *testing.T) {
	convey.Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(InitWithWriter(&buf), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When logging structured fields", func() {
			Get().Info(ctx, "evaluation finished",
				String("id", "abc"),
				Int("tp", 3),
				Float64("precision", 0.75),
				Bool("partial", true),
				Duration("took", 2*time.Millisecond),
				Error(errors.New("boom")),
			)

			convey.Convey("Then every field is rendered", func() {
				out := buf.String()
				convey.So(out, convey.ShouldContainSubstring, "evaluation finished")
				convey.So(out, convey.ShouldContainSubstring, "id=abc")
				convey.So(out, convey.ShouldContainSubstring, "tp=3")
				convey.So(out, convey.ShouldContainSubstring, "precision=0.75")
				convey.So(out, convey.ShouldContainSubstring, "partial=true")
				convey.So(out, convey.ShouldContainSubstring, "took=2ms")
				convey.So(out, convey.ShouldContainSubstring, "error=boom")
				convey.So(out, convey.ShouldContainSubstring, "source=")
			})
		})

		convey.Convey("When using nested named loggers", func() {
			Named("worker-pool").Named("w1").Info(ctx, "started")

			convey.Convey("Then the names are joined", func() {
				convey.So(buf.String(), convey.ShouldContainSubstring, "logger=worker-pool.w1")
			})
		})

		convey.Convey("When the level is raised", func() {
			convey.So(SetLevelString("warn"), convey.ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			convey.Convey("Then lower records are dropped", func() {
				convey.So(buf.String(), convey.ShouldNotContainSubstring, "hidden")
				convey.So(buf.String(), convey.ShouldContainSubstring, "shown")
			})
		})

		convey.Convey("When the level string is unknown", func() {
			convey.So(SetLevelString("loud"), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		convey.So(InitWithWriter(&buf, WithFormat("JSON")), convey.ShouldBeNil)

		Named("service").Info(context.Background(), "started", Int("workers", 4))

		convey.Convey("Then records are JSON objects", func() {
			out := buf.String()
			convey.So(out, convey.ShouldStartWith, "{")
			convey.So(out, convey.ShouldContainSubstring, `"msg":"started"`)
			convey.So(out, convey.ShouldContainSubstring, `"workers":4`)
			convey.So(out, convey.ShouldContainSubstring, `"logger":"service"`)
			convey.So(out, convey.ShouldContainSubstring, `"source":"logger_test.go:`)
		})
	})

	convey.Convey("Given an unknown format", t, func() {
		convey.So(InitWithWriter(&bytes.Buffer{}, WithFormat("xml")), convey.ShouldNotBeNil)
	})
}
