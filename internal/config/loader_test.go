package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "patcanon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_NoFile_UsesDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, config.DefaultIsoBudget, cfg.Oracle.IsoBudget)
	assert.Equal(t, config.DefaultOutputDir, cfg.Output.Dir)
	assert.Empty(t, cfg.Diagnostics.Addr)
}

func TestLoadConfig_ExplicitFile_OverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  workers: 8
  describe: true
oracle:
  iso_budget: 5000
output:
  dir: out
diagnostics:
  addr: "localhost:9090"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.Describe)
	assert.Equal(t, 5000, cfg.Oracle.IsoBudget)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "localhost:9090", cfg.Diagnostics.Addr)
}

func TestLoadConfig_PartialFile_KeepsRemainingDefaults(t *testing.T) {
	path := writeConfigFile(t, "pipeline:\n  workers: 2\n")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, config.DefaultIsoBudget, cfg.Oracle.IsoBudget)
	assert.Equal(t, config.DefaultOutputDir, cfg.Output.Dir)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PATCANON_PIPELINE_WORKERS", "3")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Pipeline.Workers)
}

func TestLoadConfig_MalformedFile_ReturnsError(t *testing.T) {
	path := writeConfigFile(t, "pipeline: [not a map\n")

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidValue_ReturnsValidationError(t *testing.T) {
	path := writeConfigFile(t, "pipeline:\n  workers: -2\n")

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestLoadConfig_MissingExplicitFile_ReturnsError(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
