package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Pipeline: config.PipelineConfig{
			Workers:  4,
			Describe: true,
		},
		Oracle: config.OracleConfig{
			IsoBudget: 100_000,
		},
		Output: config.OutputConfig{
			Dir: "patterns-out",
		},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidWorkers_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Pipeline.Workers = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestValidate_InvalidIsoBudget_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Oracle.IsoBudget = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidIsoBudget)
}

func TestValidate_EmptyOutputDir_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Output.Dir = ""

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrEmptyOutputDir)
}
