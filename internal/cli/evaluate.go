package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/scoring"
	"github.com/okian/detbench/pkg/logger"
	"github.com/okian/detbench/pkg/metrics"
)

func newEvaluateCommand(s *session) *cobra.Command {
	var (
		target  targetFlags
		logPath string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one observed log",
		Example: `  bench evaluate --log matches.log --sequence-length 64
  bench evaluate --log matches.log --scenario radio.yaml --tolerance 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()

			r, err := target.resolve(s)
			if err != nil {
				return err
			}
			samples, err := eventlog.ReadFile(ctx, logPath)
			if err != nil {
				return err
			}
			r.Input.Samples = samples

			res, err := matching.Evaluate(r.Input)
			if err != nil {
				return err
			}
			rep := scoring.Score(res)
			metrics.RecordEvaluation("cli", "ok")
			s.log.Debug(ctx, "evaluated log",
				logger.String("log", logPath),
				logger.Int("samples", len(samples)),
				logger.Duration("took", time.Since(start)),
			)

			if asJSON {
				enc := json.NewEncoder(s.out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Scenario       any `json:"scenario,omitempty"`
					Tolerance      int `json:"tolerance"`
					Report         any `json:"report"`
					FalsePositives any `json:"false_positives"`
					FalseNegatives any `json:"false_negatives"`
				}{scenarioOrNil(r), r.Input.Tolerance, rep, res.FalsePositives, res.FalseNegatives})
			}
			renderReport(s.out, logPath, r.Scenario, r.Input.Tolerance, res, rep)
			return nil
		},
	}
	target.register(cmd)
	cmd.Flags().StringVar(&logPath, "log", "", "Observed log file (offset,label per line)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("log")
	return cmd
}

// scenarioOrNil keeps a missing scenario out of JSON output.
func scenarioOrNil(r resolved) any {
	if r.Scenario == nil {
		return nil
	}
	return r.Scenario
}
