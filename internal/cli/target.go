package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/detbench/internal/domain/matching"
	"github.com/okian/detbench/internal/domain/scenario"
)

// targetFlags select what a log is scored against.
type targetFlags struct {
	sequenceLength int
	scenarioPath   string
	tolerance      int
}

const unsetTolerance = -1

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.sequenceLength, "sequence-length", "l", 0, "Derive the scenario from this sequence length")
	cmd.Flags().StringVar(&f.scenarioPath, "scenario", "", "YAML file with an explicit pattern and window")
	cmd.Flags().IntVarP(&f.tolerance, "tolerance", "t", unsetTolerance, "Matching window (default from config)")
}

// resolved is a concrete target; Scenario is set when it was derived from a
// sequence length.
type resolved struct {
	Input    matching.Input
	Scenario *scenario.Scenario
}

// resolve turns the flags into a matching input without samples. Precedence
// for the tolerance is flag, scenario file, then config.
func (f *targetFlags) resolve(s *session) (resolved, error) {
	var r resolved
	r.Input.Tolerance = s.cfg.Tolerance

	switch {
	case f.sequenceLength != 0 && f.scenarioPath != "":
		return r, ErrTwoTargets
	case f.scenarioPath != "":
		sf, err := LoadScenario(f.scenarioPath)
		if err != nil {
			return r, err
		}
		r.Input.Pattern = sf.Pattern
		r.Input.StartOffset = sf.StartOffset
		r.Input.MaxOffset = sf.MaxOffset
		if sf.Tolerance != nil {
			r.Input.Tolerance = *sf.Tolerance
		}
	case f.sequenceLength != 0:
		sc, err := scenario.Build(s.cfg.ScenarioParams(), f.sequenceLength)
		if err != nil {
			return r, err
		}
		r.Scenario = &sc
		r.Input.Pattern = sc.Pattern
		r.Input.StartOffset = sc.StartOffset
		r.Input.MaxOffset = sc.MaxOffset
	default:
		return r, ErrNoTarget
	}

	if f.tolerance != unsetTolerance {
		r.Input.Tolerance = f.tolerance
	}
	return r, nil
}
