package config

import (
	"errors"

	"github.com/changemine/patcanon/pkg/alg/iso"
)

// Config is the top-level configuration struct for patcanon.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Oracle      OracleConfig      `mapstructure:"oracle"`
	Output      OutputConfig      `mapstructure:"output"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

// PipelineConfig holds batch-run knobs.
type PipelineConfig struct {
	// Workers is the number of concurrent per-pattern workers. Zero means
	// one worker per CPU.
	Workers int `mapstructure:"workers"`
	// Describe enables the human-readable description artifact.
	Describe bool `mapstructure:"describe"`
	// Manual routes variable classification through the interactive
	// prompt instead of the heuristic decider.
	Manual bool `mapstructure:"manual"`
}

// OracleConfig holds isomorphism oracle knobs.
type OracleConfig struct {
	// IsoBudget caps the search steps of one isomorphism query.
	IsoBudget int `mapstructure:"iso_budget"`
}

// OutputConfig holds artifact destination settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// DiagnosticsConfig holds the optional diagnostics HTTP endpoint.
type DiagnosticsConfig struct {
	// Addr is the listen address for /healthz and /metrics. Empty
	// disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// Defaults applied when neither config file nor environment sets a value.
const (
	DefaultWorkers   = 0
	DefaultDescribe  = false
	DefaultManual    = false
	DefaultIsoBudget = iso.DefaultBudget
	DefaultOutputDir = "patterns-out"
	DefaultDiagAddr  = ""
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidIsoBudget indicates the oracle budget is negative.
	ErrInvalidIsoBudget = errors.New("oracle.iso_budget must be non-negative")
	// ErrEmptyOutputDir indicates the output directory is empty.
	ErrEmptyOutputDir = errors.New("output.dir must be non-empty")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Oracle.IsoBudget < 0 {
		return ErrInvalidIsoBudget
	}

	if c.Output.Dir == "" {
		return ErrEmptyOutputDir
	}

	return nil
}
