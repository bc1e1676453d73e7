// Package config loads and validates the YAML configuration for a search
// run. Invalid configuration is the one fatal error class in the system:
// everything here fails at construction time, before any iteration runs.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/funsearch-go/pkg/environment"
	errs "github.com/XiaoConstantine/funsearch-go/pkg/errors"
	"github.com/XiaoConstantine/funsearch-go/pkg/evaluator"
)

// Config is the complete configuration for a search run.
type Config struct {
	Environment environment.Config `yaml:"environment"`
	Population  PopulationConfig   `yaml:"population"`
	Evaluator   evaluator.Config   `yaml:"evaluator"`
	Search      SearchConfig       `yaml:"search"`
	Sampler     SamplerConfig      `yaml:"sampler"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// PopulationConfig configures the population store.
type PopulationConfig struct {
	Capacity int `yaml:"capacity" validate:"gt=0"`
}

// SearchConfig configures the orchestration loop.
type SearchConfig struct {
	Iterations  int    `yaml:"iterations" validate:"gte=0"`
	LogInterval int    `yaml:"log_interval" validate:"gte=0"`
	ArchivePath string `yaml:"archive_path"`
	// SeedSource optionally overrides the built-in seed behavior.
	SeedSource string `yaml:"seed_source"`
}

// SamplerConfig selects and configures the candidate generator.
type SamplerConfig struct {
	// Provider is "mock" or "anthropic".
	Provider    string  `yaml:"provider" validate:"oneof=mock anthropic"`
	Seed        int64   `yaml:"seed"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int64   `yaml:"max_tokens" validate:"gte=0"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`
	Color bool   `yaml:"color"`
	File  string `yaml:"file"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Environment: environment.DefaultConfig(),
		Population: PopulationConfig{
			Capacity: 100,
		},
		Evaluator: evaluator.DefaultConfig(),
		Search: SearchConfig{
			Iterations:  100,
			LogInterval: 10,
		},
		Sampler: SamplerConfig{
			Provider:    "mock",
			Seed:        time.Now().UnixNano(),
			Temperature: 0.8,
			MaxTokens:   1024,
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Color: true,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WithFields(
			errs.Wrap(err, errs.InvalidInput, "failed to read config file"),
			errs.Fields{"path": path})
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.WithFields(
			errs.Wrap(err, errs.InvalidInput, "failed to parse config file"),
			errs.Fields{"path": path})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks tag constraints plus the cross-field rules the tags cannot
// express. The environment and evaluator re-validate in their constructors;
// this surfaces problems with file-sourced values before anything is built.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errs.Wrap(err, errs.ValidationFailed, "invalid configuration")
	}
	if c.Sampler.Provider == "anthropic" && c.Sampler.Model == "" {
		return errs.New(errs.ValidationFailed, "anthropic sampler requires a model")
	}
	return nil
}
