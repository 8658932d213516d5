package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/synth"
	"github.com/okian/detbench/pkg/logger"
)

func newSynthCommand(s *session) *cobra.Command {
	var (
		target targetFlags
		out    string
		jitter int
		drop   float64
		noise  float64
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic observed log for a scenario",
		Long: `synth projects the scenario's expected events and writes the log an imperfect
detector would report: events are dropped, shifted by up to --jitter and mixed
with spurious labels. The same seed always yields the same log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, err := target.resolve(s)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			samples, err := synth.Generate(ctx, synth.Config{
				Pattern:      r.Input.Pattern,
				StartOffset:  r.Input.StartOffset,
				MaxOffset:    r.Input.MaxOffset,
				Jitter:       jitter,
				DropRate:     drop,
				SpuriousRate: noise,
				Seed:         seed,
			})
			if err != nil {
				return err
			}
			if err := eventlog.WriteFile(out, samples); err != nil {
				return err
			}
			s.log.Info(ctx, "wrote synthetic log",
				logger.String("out", out),
				logger.Int("samples", len(samples)),
				logger.Any("seed", seed),
			)
			_, err = fmt.Fprintf(s.out, "%s: %d samples (seed %d)\n", out, len(samples), seed)
			return err
		},
	}
	target.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output log file")
	cmd.Flags().IntVar(&jitter, "jitter", 0, "Largest shift applied to a kept event")
	cmd.Flags().Float64Var(&drop, "drop", 0, "Probability an expected event is dropped")
	cmd.Flags().Float64Var(&noise, "spurious", 0, "Probability of a spurious event per expected event")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: time based)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
