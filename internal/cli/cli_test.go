package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const radioScenario = `start_offset: 0
max_offset: 400
tolerance: 5
pattern:
  - {label: wifi, distance: 100}
  - {label: lora, distance: 100}
`

var radioLog = []model.Sample{
	{Offset: 0, Name: "wifi"},
	{Offset: 101, Name: "lora"},
	{Offset: 199, Name: "wifi"},
	{Offset: 300, Name: "lora"},
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeLog(t *testing.T, dir, name string, samples []model.Sample) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := eventlog.WriteFile(path, samples); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// execute runs the bench command tree and returns stdout.
func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadScenario(t *testing.T) {
	Convey("Given scenario files", t, func() {
		dir := t.TempDir()

		Convey("When the file is valid", func() {
			sf, err := LoadScenario(writeFile(t, dir, "ok.yaml", radioScenario))

			Convey("Then every field is read", func() {
				So(err, ShouldBeNil)
				So(sf.MaxOffset, ShouldEqual, 400)
				So(*sf.Tolerance, ShouldEqual, 5)
				So(sf.Pattern, ShouldResemble, model.PatternSpec{
					{Label: "wifi", Distance: 100},
					{Label: "lora", Distance: 100},
				})
			})
		})

		Convey("When a distance does not advance", func() {
			_, err := LoadScenario(writeFile(t, dir, "bad.yaml", "max_offset: 10\npattern:\n  - {label: a, distance: 0}\n"))
			So(errkind.KindOf(err), ShouldEqual, "malformed")
		})

		Convey("When the YAML is broken", func() {
			_, err := LoadScenario(writeFile(t, dir, "broken.yaml", "pattern: [\n"))
			So(errors.Is(err, ErrInvalidScenario), ShouldBeTrue)
		})

		Convey("When the file is missing", func() {
			_, err := LoadScenario(filepath.Join(dir, "nope.yaml"))
			So(errkind.KindOf(err), ShouldEqual, "not_found")
		})
	})
}

func TestCoprimesCommand(t *testing.T) {
	Convey("Given the coprimes command", t, func() {
		out, err := execute("coprimes", "--n", "64", "--count", "4")

		Convey("Then the roots are printed on one line", func() {
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "3 5 7 9\n")
		})
	})
}

func TestEvaluateCommand(t *testing.T) {
	Convey("Given a scenario and a matching log", t, func() {
		dir := t.TempDir()
		scenarioPath := writeFile(t, dir, "radio.yaml", radioScenario)
		logPath := writeLog(t, dir, "run.log", radioLog)

		Convey("When evaluating with the rendered report", func() {
			out, err := execute("evaluate", "--log", logPath, "--scenario", scenarioPath)

			Convey("Then every score is perfect", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "100.00%")
				So(out, ShouldNotContainSubstring, "missed events")
			})
		})

		Convey("When the tolerance flag is tighter than the file", func() {
			out, err := execute("evaluate", "--log", logPath, "--scenario", scenarioPath, "--tolerance", "0", "--json")

			Convey("Then the shifted samples no longer match", func() {
				So(err, ShouldBeNil)
				var got struct {
					Tolerance int          `json:"tolerance"`
					Report    model.Report `json:"report"`
				}
				So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
				So(got.Tolerance, ShouldEqual, 0)
				So(got.Report.TruePositives, ShouldEqual, 2)
				So(got.Report.FalsePositives, ShouldEqual, 2)
				So(got.Report.FalseNegatives, ShouldEqual, 2)
			})
		})

		Convey("When evaluating by sequence length", func() {
			out, err := execute("evaluate", "--log", logPath, "--sequence-length", "64", "--json")

			Convey("Then the derived scenario is reported", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `"sync_root": 3`)
			})
		})

		Convey("When no target is given", func() {
			_, err := execute("evaluate", "--log", logPath)
			So(errors.Is(err, ErrNoTarget), ShouldBeTrue)
		})

		Convey("When both targets are given", func() {
			_, err := execute("evaluate", "--log", logPath, "--scenario", scenarioPath, "--sequence-length", "8")
			So(errors.Is(err, ErrTwoTargets), ShouldBeTrue)
		})

		Convey("When the log is missing", func() {
			_, err := execute("evaluate", "--log", filepath.Join(dir, "missing.log"), "--scenario", scenarioPath)
			So(errkind.KindOf(err), ShouldEqual, "not_found")
		})
	})
}

func TestValidateCommand(t *testing.T) {
	Convey("Given a log that skips a label", t, func() {
		dir := t.TempDir()
		logPath := writeFile(t, dir, "run.log", "0,wifi\n1,zigbee\n2,LoRa\n")

		Convey("When validating against the default cycle", func() {
			out, err := execute("validate", "--log", logPath)

			Convey("Then it is reported out of sequence", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "out of sequence")
				So(out, ShouldContainSubstring, "1,zigbee")
			})
		})

		Convey("When the log file is read directly", func() {
			res, err := validateFile(context.Background(), logPath, []string{"wifi", "lora", "zigbee"})

			Convey("Then the skipped label is owed", func() {
				So(err, ShouldBeNil)
				So(res.ExpectedIndex, ShouldEqual, 2)
				So(res.FalsePositives, ShouldResemble, []model.Sample{{Offset: 1, Name: "zigbee"}})
				So(res.FalseNegatives, ShouldResemble, []string{"zigbee"})
			})
		})

		Convey("When the log is missing", func() {
			_, err := execute("validate", "--log", filepath.Join(dir, "nope.log"))
			So(errkind.KindOf(err), ShouldEqual, "not_found")
		})

		Convey("When validating against a custom cycle", func() {
			out, err := execute("validate", "--log", logPath, "--sequence", "wifi,zigbee,lora")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "in sequence")
			So(out, ShouldNotContainSubstring, "out of sequence")
		})
	})
}

func TestSynthCommand(t *testing.T) {
	Convey("Given a scenario", t, func() {
		dir := t.TempDir()
		scenarioPath := writeFile(t, dir, "radio.yaml", radioScenario)
		out := filepath.Join(dir, "synth.log")

		Convey("When synthesizing a noiseless log", func() {
			msg, err := execute("synth", "--scenario", scenarioPath, "--out", out, "--seed", "7")

			Convey("Then the log scores perfectly", func() {
				So(err, ShouldBeNil)
				So(msg, ShouldContainSubstring, "4 samples (seed 7)")
				samples, err := eventlog.ReadFile(context.Background(), out)
				So(err, ShouldBeNil)
				So(len(samples), ShouldEqual, 4)

				report, err := execute("evaluate", "--log", out, "--scenario", scenarioPath, "--json")
				So(err, ShouldBeNil)
				So(report, ShouldContainSubstring, `"recall": 1`)
			})
		})

		Convey("When the drop rate is out of range", func() {
			_, err := execute("synth", "--scenario", scenarioPath, "--out", out, "--drop", "2")
			So(errkind.KindOf(err), ShouldEqual, "malformed")
		})
	})
}

func TestBatch(t *testing.T) {
	Convey("Given a perfect log, a sparse log and a missing one", t, func() {
		dir := t.TempDir()
		sf, err := LoadScenario(writeFile(t, dir, "radio.yaml", radioScenario))
		So(err, ShouldBeNil)
		in := matching.Input{
			Pattern:     sf.Pattern,
			StartOffset: sf.StartOffset,
			MaxOffset:   sf.MaxOffset,
			Tolerance:   *sf.Tolerance,
		}

		perfect := writeLog(t, dir, "perfect.log", radioLog)
		sparse := writeLog(t, dir, "sparse.log", radioLog[:2])
		missing := filepath.Join(dir, "missing.log")

		Convey("When keeping going past failures", func() {
			calls := 0
			rows, err := Batch(context.Background(), in, []string{perfect, sparse, missing}, 2, true, func() { calls++ })

			Convey("Then rows keep file order", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				So(rows[0].File, ShouldEqual, perfect)
				So(rows[0].Report.F1, ShouldEqual, 1.0)
				So(rows[1].Report.Recall, ShouldEqual, 0.5)
				So(errkind.KindOf(rows[2].Err), ShouldEqual, "not_found")
			})

			Convey("And the CSV has one line per file", func() {
				var buf bytes.Buffer
				So(WriteCSV(&buf, rows), ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(len(lines), ShouldEqual, 4)
				So(lines[0], ShouldEqual, "file,precision,recall,f1,tp,fp,fn,error")
				So(lines[1], ShouldEqual, perfect+",100.00,100.00,100.00,4,0,0,")
				So(lines[2], ShouldStartWith, sparse+",100.00,50.00,66.67,2,0,2,")
				So(lines[3], ShouldStartWith, missing+",,,,,,,")
			})
		})

		Convey("When stopping at the first failure", func() {
			_, err := Batch(context.Background(), in, []string{perfect, missing}, 1, false, nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing.log")
		})

		Convey("When no files are given", func() {
			_, err := Batch(context.Background(), in, nil, 1, false, nil)
			So(errors.Is(err, ErrNoFiles), ShouldBeTrue)
		})

		Convey("When running the batch command", func() {
			csvPath := filepath.Join(dir, "out.csv")
			_, err := execute("batch", "--scenario", filepath.Join(dir, "radio.yaml"), "--quiet", "--out", csvPath, perfect, sparse)

			Convey("Then the CSV is written", func() {
				So(err, ShouldBeNil)
				data, err := os.ReadFile(csvPath)
				So(err, ShouldBeNil)
				So(strings.Count(string(data), "\n"), ShouldEqual, 3)
			})
		})
	})
}
