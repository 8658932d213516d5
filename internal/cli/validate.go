package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/domain/cyclic"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
	"github.com/okian/detbench/pkg/metrics"
)

func newValidateCommand(s *session) *cobra.Command {
	var (
		logPath  string
		sequence []string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a log follows the label cycle",
		Long: `validate walks the log with a cyclic state machine and reports samples that
arrived out of turn, and the labels still owed when the log stops mid-cycle.
Labels compare case-insensitively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if len(sequence) == 0 {
				sequence = s.cfg.Labels
			}
			res, err := validateFile(ctx, logPath, sequence)
			if err != nil {
				metrics.RecordValidation("error")
				return err
			}
			metrics.RecordValidation("ok")
			s.log.Debug(ctx, "validated log",
				logger.String("log", logPath),
				logger.String("sequence", strings.Join(sequence, ",")),
			)
			renderValidation(s.out, trimmed(sequence), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "Observed log file (offset,label per line)")
	cmd.Flags().StringSliceVar(&sequence, "sequence", nil, "Label cycle (default from config)")
	_ = cmd.MarkFlagRequired("log")
	return cmd
}

// validateFile reads the log at path and runs the cyclic validator over it.
func validateFile(ctx context.Context, path string, sequence []string) (cyclic.Result, error) {
	const op = "cli.validate_file"
	samples, err := eventlog.ReadFile(ctx, path)
	if err != nil {
		return cyclic.Result{}, errkind.Wrap(op, err)
	}
	res, err := cyclic.Validate(sequence, samples)
	if err != nil {
		return cyclic.Result{}, errkind.Wrap(op, err)
	}
	return res, nil
}

func trimmed(in []string) []string {
	out := make([]string, len(in))
	for i, l := range in {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
