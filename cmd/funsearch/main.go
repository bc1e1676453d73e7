// Command funsearch runs an evolutionary behavior search from a YAML
// configuration file, seeds it with a flee behavior, and prints the best
// program found.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/XiaoConstantine/funsearch-go/pkg/archive"
	"github.com/XiaoConstantine/funsearch-go/pkg/config"
	"github.com/XiaoConstantine/funsearch-go/pkg/environment"
	"github.com/XiaoConstantine/funsearch-go/pkg/evaluator"
	"github.com/XiaoConstantine/funsearch-go/pkg/logging"
	"github.com/XiaoConstantine/funsearch-go/pkg/population"
	"github.com/XiaoConstantine/funsearch-go/pkg/sampler"
	"github.com/XiaoConstantine/funsearch-go/pkg/search"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration (defaults apply when omitted)")
	iterations := flag.Int("iterations", 0, "override the configured iteration count")
	flag.Parse()

	if err := run(*configPath, *iterations); err != nil {
		fmt.Fprintf(os.Stderr, "funsearch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, iterations int) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if iterations > 0 {
		cfg.Search.Iterations = iterations
	}

	if err := setupLogging(cfg.Logging); err != nil {
		return err
	}

	env, err := environment.New(cfg.Environment)
	if err != nil {
		return err
	}
	eval, err := evaluator.New(env, cfg.Evaluator)
	if err != nil {
		return err
	}
	store, err := population.NewStore(cfg.Population.Capacity)
	if err != nil {
		return err
	}
	smp, err := buildSampler(cfg.Sampler)
	if err != nil {
		return err
	}

	opts := []search.Option{search.WithLogInterval(cfg.Search.LogInterval)}
	if cfg.Search.ArchivePath != "" {
		arc, err := archive.Open(cfg.Search.ArchivePath)
		if err != nil {
			return err
		}
		defer arc.Close()
		opts = append(opts, search.WithRecorder(arc))
	}

	s, err := search.New(eval, store, smp, opts...)
	if err != nil {
		return err
	}

	ctx := context.Background()

	seed := cfg.Search.SeedSource
	if seed == "" {
		seed = sampler.SeedBehavior
	}
	s.Seed(ctx, seed)
	s.Run(ctx, cfg.Search.Iterations)

	stats := s.Statistics()
	fmt.Printf("\nproposed=%d valid=%d accepted=%d best=%.2f\n",
		stats.Search.TotalProposed, stats.Search.TotalValid,
		stats.Search.TotalAccepted, stats.Search.BestFitness)
	fmt.Printf("\nBest program:\n%s\n", s.BestProgram())
	return nil
}

func setupLogging(cfg config.LoggingConfig) error {
	outputs := []logging.Output{
		logging.NewConsoleOutput(true, logging.WithColor(cfg.Color)),
	}
	if cfg.File != "" {
		fileOut, err := logging.NewFileOutput(cfg.File)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOut)
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Level),
		Outputs:  outputs,
	}))
	return nil
}

func buildSampler(cfg config.SamplerConfig) (sampler.Sampler, error) {
	switch cfg.Provider {
	case "anthropic":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return sampler.NewAnthropicSampler(apiKey, anthropic.Model(cfg.Model),
			sampler.WithTemperature(cfg.Temperature),
			sampler.WithMaxTokens(cfg.MaxTokens))
	default:
		return sampler.NewMockSampler(cfg.Seed), nil
	}
}
