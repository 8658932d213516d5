// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/detbench/internal/domain/scenario"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Tolerance is the matching window used when a request omits one.
	Tolerance int `koanf:"tolerance"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxRecords bounds how many finished job records are kept.
	MaxRecords int `koanf:"max_records"`

	// MaxExpectedEvents caps the expected schedule of one evaluation or job.
	MaxExpectedEvents int `koanf:"max_expected_events"`

	// LogRoot is the directory batch job paths must resolve into.
	LogRoot string `koanf:"log_root"`

	// MaxListLimit caps GET /jobs?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxBodyBytes caps request bodies; inline logs can be large.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown of the server and workers.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Scenario parameters applied when a request gives only a sequence length.
	ScenarioInterval    int      `koanf:"scenario_interval"`
	ScenarioPadding     int      `koanf:"scenario_padding"`
	ScenarioStartOffset int      `koanf:"scenario_start_offset"`
	ScenarioSpan        int      `koanf:"scenario_span"`
	Labels              []string `koanf:"labels"`
}

// New creates a Config with defaults.
func New() *Config {
	p := scenario.DefaultParams()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Tolerance:           250,
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		MaxRecords:          100_000,
		MaxExpectedEvents:   1_000_000,
		LogRoot:             ".",
		MaxListLimit:        100,
		MaxBodyBytes:        8 << 20,
		ShutdownTimeout:     10 * time.Second,
		ScenarioInterval:    p.Interval,
		ScenarioPadding:     p.Padding,
		ScenarioStartOffset: p.StartOffset,
		ScenarioSpan:        p.Span,
		Labels:              p.Labels,
	}
}

// ScenarioParams returns the scenario parameters described by c.
func (c *Config) ScenarioParams() scenario.Params {
	return scenario.Params{
		Labels:      append([]string(nil), c.Labels...),
		Interval:    c.ScenarioInterval,
		Padding:     c.ScenarioPadding,
		StartOffset: c.ScenarioStartOffset,
		Span:        c.ScenarioSpan,
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance must not be negative", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxExpectedEvents < 1:
		return fmt.Errorf("%w: max_expected_events must be positive", ErrInvalidConfig)
	case c.LogRoot == "":
		return fmt.Errorf("%w: log_root must not be empty", ErrInvalidConfig)
	case c.MaxListLimit < 1:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes < 1:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case len(c.Labels) == 0:
		return fmt.Errorf("%w: labels must not be empty", ErrInvalidConfig)
	case c.ScenarioSpan <= 0 || c.ScenarioInterval < 0 || c.ScenarioPadding < 0 || c.ScenarioStartOffset < 0:
		return fmt.Errorf("%w: scenario parameters out of range", ErrInvalidConfig)
	}
	for i, l := range c.Labels {
		if l == "" {
			return fmt.Errorf("%w: labels[%d] is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}
