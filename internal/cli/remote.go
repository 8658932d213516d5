package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/adapters/repository"
	"github.com/okian/detbench/pkg/logger"
)

// RemoteConfig holds configuration for scoring logs on a running evaluator.
type RemoteConfig struct {
	BaseURL      string
	Files        []string
	Request      jobRequest // Path is filled per file
	Workers      int
	Timeout      time.Duration
	PollInterval time.Duration
}

// RemoteStats holds run statistics.
type RemoteStats struct {
	Submitted int
	Rejected  int
	Done      int
	Failed    int
	Duration  time.Duration
}

// RemoteResult pairs each submitted file with its final record.
type RemoteResult struct {
	File   string
	Record repository.Record
	Err    error
}

// RunRemote submits every file as a batch job, waits for each to finish and
// returns the records in file order. The server must be able to read the paths,
// so they are made absolute first.
func RunRemote(ctx context.Context, cfg RemoteConfig, log logger.Logger) ([]RemoteResult, RemoteStats, error) {
	start := time.Now()
	var stats RemoteStats
	if len(cfg.Files) == 0 {
		return nil, stats, ErrNoFiles
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	client := newAPIClient(cfg.BaseURL, cfg.Timeout)
	if err := client.health(ctx); err != nil {
		return nil, stats, fmt.Errorf("service health check failed: %w", err)
	}

	results := make([]RemoteResult, len(cfg.Files))
	var submitted, rejected, done, failed int64

	indexes := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				res := runOne(ctx, client, cfg, cfg.Files[i])
				results[i] = res
				switch {
				case res.Record.JobID == "":
					atomic.AddInt64(&rejected, 1)
				case res.Record.Status == repository.StatusDone:
					atomic.AddInt64(&submitted, 1)
					atomic.AddInt64(&done, 1)
				default:
					atomic.AddInt64(&submitted, 1)
					atomic.AddInt64(&failed, 1)
				}
				if res.Err != nil {
					log.Warn(ctx, "remote job did not finish", logger.String("file", res.File), logger.Error(res.Err))
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range cfg.Files {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()
	wg.Wait()

	stats = RemoteStats{
		Submitted: int(submitted),
		Rejected:  int(rejected),
		Done:      int(done),
		Failed:    int(failed),
		Duration:  time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

// runOne submits one file and polls its record until it leaves pending.
func runOne(ctx context.Context, client *apiClient, cfg RemoteConfig, file string) RemoteResult {
	res := RemoteResult{File: file}
	abs, err := filepath.Abs(file)
	if err != nil {
		res.Err = err
		return res
	}
	req := cfg.Request
	req.Path = abs

	id, err := client.submit(ctx, req)
	if err != nil {
		res.Err = err
		return res
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		rec, err := client.job(ctx, id)
		if err != nil {
			res.Record = repository.Record{JobID: id, Status: repository.StatusFailed}
			res.Err = err
			return res
		}
		if rec.Status != repository.StatusPending {
			res.Record = rec
			if rec.Status == repository.StatusFailed {
				res.Err = fmt.Errorf("%w: %s", ErrJobFailed, rec.Error)
			}
			return res
		}
		select {
		case <-ctx.Done():
			res.Record = rec
			res.Err = ctx.Err()
			return res
		case <-ticker.C:
		}
	}
}

// verifyRanking checks that the server's top listed job is the best of ours.
// Other clients may have submitted better jobs, so a mismatch is a warning.
func verifyRanking(results []RemoteResult, listed []repository.Record) error {
	var best *repository.Record
	for i := range results {
		r := &results[i].Record
		if r.Report == nil {
			continue
		}
		if best == nil || r.Report.F1 > best.Report.F1 {
			best = r
		}
	}
	if best == nil || len(listed) == 0 || listed[0].Report == nil {
		return nil
	}
	if listed[0].Report.F1 < best.Report.F1 {
		return fmt.Errorf("top listed job %s (f1 %.4f) scores below job %s (f1 %.4f)",
			listed[0].JobID, listed[0].Report.F1, best.JobID, best.Report.F1)
	}
	return nil
}

func renderRemote(w io.Writer, results []RemoteResult, stats RemoteStats) {
	lines := []string{titleStyle.Render("remote scoring")}
	for _, r := range results {
		status := poorStyle.Render("failed")
		detail := ""
		switch {
		case r.Record.Report != nil:
			status = scoreStyle(r.Record.Report.F1).Render("f1 " + pct(r.Record.Report.F1))
			if r.Record.Rank > 0 {
				detail = mutedStyle.Render(" rank " + strconv.Itoa(r.Record.Rank))
			}
		case r.Err != nil:
			var se *StatusError
			if errors.As(r.Err, &se) && se.Status == http.StatusTooManyRequests {
				status = fairStyle.Render("rejected")
			}
			detail = mutedStyle.Render(" " + r.Err.Error())
		}
		lines = append(lines, row(filepath.Base(r.File), status+detail))
	}
	lines = append(lines,
		row("done", strconv.Itoa(stats.Done)),
		row("failed", strconv.Itoa(stats.Failed)),
		row("rejected", strconv.Itoa(stats.Rejected)),
		row("duration", stats.Duration.Round(time.Millisecond).String()),
	)
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func newRemoteCommand(s *session) *cobra.Command {
	var (
		cfg         RemoteConfig
		scenarioArg string
		tolerance   int
	)
	cmd := &cobra.Command{
		Use:   "remote FILE...",
		Short: "Score logs as batch jobs on a running evaluator",
		Example: `  bench remote --url http://localhost:9080 --sequence-length 64 runs/*.log
  bench remote --scenario radio.yaml --workers 8 runs/*.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			ctx := cmd.Context()
			cfg.Files = files
			switch {
			case cfg.Request.SequenceLength != 0 && scenarioArg != "":
				return ErrTwoTargets
			case scenarioArg != "":
				sf, err := LoadScenario(scenarioArg)
				if err != nil {
					return err
				}
				cfg.Request.Pattern = sf.Pattern
				cfg.Request.StartOffset = sf.StartOffset
				cfg.Request.MaxOffset = sf.MaxOffset
				cfg.Request.Tolerance = sf.Tolerance
			case cfg.Request.SequenceLength == 0:
				return ErrNoTarget
			}
			if tolerance != unsetTolerance {
				cfg.Request.Tolerance = &tolerance
			}

			s.log.Info(ctx, "submitting logs",
				logger.String("url", cfg.BaseURL),
				logger.Int("files", len(files)),
				logger.Int("workers", cfg.Workers),
			)
			results, stats, err := RunRemote(ctx, cfg, s.log)
			if err != nil {
				return err
			}

			client := newAPIClient(cfg.BaseURL, cfg.Timeout)
			if listed, err := client.jobs(ctx, 1); err != nil {
				s.log.Warn(ctx, "could not list jobs", logger.Error(err))
			} else if err := verifyRanking(results, listed); err != nil {
				s.log.Warn(ctx, "ranking check", logger.Error(err))
			}

			renderRemote(s.out, results, stats)
			if stats.Failed+stats.Rejected > 0 {
				return fmt.Errorf("%d of %d logs were not scored", stats.Failed+stats.Rejected, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the evaluator")
	cmd.Flags().IntVarP(&cfg.Request.SequenceLength, "sequence-length", "l", 0, "Sequence length the server derives the scenario from")
	cmd.Flags().StringVar(&scenarioArg, "scenario", "", "YAML file with an explicit pattern and window")
	cmd.Flags().IntVarP(&tolerance, "tolerance", "t", unsetTolerance, "Matching window (default from the server)")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "Concurrent submissions")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().DurationVar(&cfg.PollInterval, "poll", 100*time.Millisecond, "Interval between job status checks")
	return cmd
}
