// Package cli implements the bench command line: offline evaluation,
// validation and batch scoring of detector logs, synthetic log generation, and
// submission to a running evaluator.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/config"
	"github.com/okian/detbench/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// session holds what every subcommand shares once flags are parsed.
type session struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	cfg *config.Config
	log logger.Logger
}

// NewRootCommand builds the bench command tree. Reports go to out; once the
// config is loaded the global logger is pointed at errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	s := &session{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "bench",
		Short: "Score detector output against its ground-truth cycle",
		Long: `bench scores the events a detector reported against the cyclic schedule it
was expected to observe. Logs are lines of "offset,label".

Defaults for tolerance and the scenario schedule come from DETBENCH_* environment
variables or the YAML file named by DETBENCH_CONFIG.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.init(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newEvaluateCommand(s),
		newValidateCommand(s),
		newCoprimesCommand(s),
		newBatchCommand(s),
		newSynthCommand(s),
		newRemoteCommand(s),
	)
	return root
}

func (s *session) init(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	s.cfg = cfg

	if err := logger.InitWithWriter(s.errOut, logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	level := cfg.LogLevel
	if s.verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}
	s.log = logger.Get().Named("bench")
	return nil
}
