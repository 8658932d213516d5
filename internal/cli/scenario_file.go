package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/pattern"
	"github.com/okian/detbench/pkg/errkind"
)

// ScenarioFile is the YAML form of an explicit evaluation target:
//
//	start_offset: 0
//	max_offset: 90000
//	tolerance: 250
//	pattern:
//	  - {label: wifi, distance: 30000}
//	  - {label: lora, distance: 30000}
type ScenarioFile struct {
	StartOffset int               `yaml:"start_offset"`
	MaxOffset   int               `yaml:"max_offset"`
	Tolerance   *int              `yaml:"tolerance,omitempty"`
	Pattern     model.PatternSpec `yaml:"pattern"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (ScenarioFile, error) {
	const op = "cli.load_scenario"
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ScenarioFile{}, errkind.WrapKind(op, errkind.ErrNotFound, err)
		}
		return ScenarioFile{}, errkind.WrapKind(op, errkind.ErrInternal, err)
	}

	var sf ScenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return ScenarioFile{}, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %s: %w", ErrInvalidScenario, path, err))
	}
	if err := pattern.Validate(sf.Pattern); err != nil {
		return ScenarioFile{}, errkind.Wrap(op, fmt.Errorf("%s: %w", path, err))
	}
	if sf.Tolerance != nil && *sf.Tolerance < 0 {
		return ScenarioFile{}, errkind.WrapKind(op, errkind.ErrMalformed,
			fmt.Errorf("%w: %s: negative tolerance", ErrInvalidScenario, path))
	}
	return sf, nil
}
