package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/scoring"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
	"github.com/okian/detbench/pkg/metrics"
)

// BatchRow is the outcome for one log of a batch.
type BatchRow struct {
	File   string
	Report model.Report
	Err    error
}

var batchHeader = []string{"file", "precision", "recall", "f1", "tp", "fp", "fn", "error"}

// Batch scores every file against the same target with at most workers files
// in flight. Rows keep the order of files. Without keepGoing the first failure
// cancels the rest and is returned; with it failures are recorded per row.
// done is called after each file.
func Batch(ctx context.Context, in matching.Input, files []string, workers int, keepGoing bool, done func()) ([]BatchRow, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	rows := make([]BatchRow, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			rows[i].File = file
			rep, err := scoreFile(ctx, in, file)
			if done != nil {
				done()
			}
			if err != nil {
				metrics.RecordEvaluation("cli", errkind.KindOf(err))
				if !keepGoing {
					return fmt.Errorf("%s: %w", file, err)
				}
				rows[i].Err = err
				return nil
			}
			metrics.RecordEvaluation("cli", "ok")
			rows[i].Report = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func scoreFile(ctx context.Context, in matching.Input, file string) (model.Report, error) {
	samples, err := eventlog.ReadFile(ctx, file)
	if err != nil {
		return model.Report{}, err
	}
	in.Samples = samples
	res, err := matching.Evaluate(in)
	if err != nil {
		return model.Report{}, err
	}
	return scoring.Score(res), nil
}

// WriteCSV writes rows with precision, recall and f1 as percentages.
func WriteCSV(w io.Writer, rows []BatchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchHeader); err != nil {
		return err
	}
	pf := func(v float64) string { return strconv.FormatFloat(v*100, 'f', 2, 64) }
	for _, r := range rows {
		rec := []string{r.File, "", "", "", "", "", "", ""}
		if r.Err != nil {
			rec[7] = r.Err.Error()
		} else {
			rec[1], rec[2], rec[3] = pf(r.Report.Precision), pf(r.Report.Recall), pf(r.Report.F1)
			rec[4] = strconv.Itoa(r.Report.TruePositives)
			rec[5] = strconv.Itoa(r.Report.FalsePositives)
			rec[6] = strconv.Itoa(r.Report.FalseNegatives)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newBatchCommand(s *session) *cobra.Command {
	var (
		target    targetFlags
		workers   int
		out       string
		keepGoing bool
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Score many logs in parallel and write a CSV summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) (err error) {
			ctx := cmd.Context()
			r, err := target.resolve(s)
			if err != nil {
				return err
			}

			var tick func()
			if !quiet {
				bar := newProgress(s.errOut, len(files), "scoring")
				defer func() { _ = bar.Finish() }()
				tick = func() { _ = bar.Add(1) }
			}

			rows, err := Batch(ctx, r.Input, files, workers, keepGoing, tick)
			if err != nil {
				return err
			}

			w := s.out
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			if err := WriteCSV(w, rows); err != nil {
				return err
			}

			failed := 0
			for _, row := range rows {
				if row.Err != nil {
					failed++
				}
			}
			s.log.Info(ctx, "batch finished",
				logger.Int("files", len(rows)),
				logger.Int("failed", failed),
				logger.Int("workers", workers),
			)
			return nil
		},
	}
	target.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Files scored concurrently")
	cmd.Flags().StringVarP(&out, "out", "o", "", "CSV output file (default stdout)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Record failing files instead of stopping")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}
