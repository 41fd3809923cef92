package sim

import (
	"fmt"
	"math"
	"os"

	"github.com/devsim/devsim/sim/trace"
	"gopkg.in/yaml.v3"
)

// Config holds the run parameters of one simulation, loadable from YAML.
// Zero values mean "not set": an unbounded horizon, unlimited steps, strict
// change handling and no tracing.
type Config struct {
	Horizon    float64    `yaml:"horizon"`
	MaxSteps   int        `yaml:"max_steps"`
	Seed       int64      `yaml:"seed"`
	ChangeMode ChangeMode `yaml:"change_mode"`
	TraceLevel string     `yaml:"trace_level"`
}

// LoadConfig reads and parses a YAML run configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading simulation config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing simulation config: %w", err)
	}
	return &cfg, nil
}

// Validate checks names and parameter ranges.
func (c *Config) Validate() error {
	if c.Horizon < 0 || math.IsNaN(c.Horizon) {
		return fmt.Errorf("horizon must be non-negative, got %v", c.Horizon)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", c.MaxSteps)
	}
	if !ValidChangeModes[c.ChangeMode] {
		return fmt.Errorf("unknown change mode %q", c.ChangeMode)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

// HorizonTime returns the horizon as a Time, Infinity when unset.
func (c *Config) HorizonTime() Time {
	if c.Horizon == 0 {
		return Infinity
	}
	return Time(c.Horizon)
}
