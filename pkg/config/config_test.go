package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Population.Capacity)
	assert.Equal(t, 10, cfg.Evaluator.NumTrials)
	assert.Equal(t, "mock", cfg.Sampler.Provider)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Population.Capacity = 0 }},
		{"negative capacity", func(c *Config) { c.Population.Capacity = -1 }},
		{"unknown provider", func(c *Config) { c.Sampler.Provider = "carrier-pigeon" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "LOUD" }},
		{"negative iterations", func(c *Config) { c.Search.Iterations = -1 }},
		{"anthropic without model", func(c *Config) { c.Sampler.Provider = "anthropic"; c.Sampler.Model = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
environment:
  width: 60
  height: 60
  num_prey: 3
population:
  capacity: 25
search:
  iterations: 42
sampler:
  provider: mock
  seed: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// File values override defaults; untouched fields keep them.
	assert.Equal(t, 60.0, cfg.Environment.Width)
	assert.Equal(t, 3, cfg.Environment.NumPrey)
	assert.Equal(t, 2, cfg.Environment.NumPredators)
	assert.Equal(t, 25, cfg.Population.Capacity)
	assert.Equal(t, 42, cfg.Search.Iterations)
	assert.Equal(t, int64(5), cfg.Sampler.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("population:\n  capacity: -3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
