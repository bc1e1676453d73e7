// Package evaluator turns candidate program text into a fitness score.
//
// Candidates are Go source snippets executed inside an isolated yaegi
// interpreter with a restricted standard library. Every failure mode -
// invalid syntax, missing entry point, compile error, runtime panic,
// exceeded time budget - is converted into the fitness floor with
// diagnostics in metadata, never into an error return, so the surrounding
// search loop can run unattended on arbitrarily bad candidates.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/XiaoConstantine/funsearch-go/pkg/environment"
	errs "github.com/XiaoConstantine/funsearch-go/pkg/errors"
)

// EntryPoint is the function a candidate must define:
//
//	func Behavior(state map[string]float64, self, threat [2]float64) (float64, float64)
//
// state carries "step", "width", "height" and "num_alive"; positions are
// {x, y} pairs; the returns are the direction to move.
const EntryPoint = "Behavior"

// FailedFitness is the sentinel score for candidates that could not be
// evaluated.
const FailedFitness = -1.0

// behaviorFunc is the raw signature extracted from the interpreter.
type behaviorFunc = func(map[string]float64, [2]float64, [2]float64) (float64, float64)

// Metadata carries diagnostic fields about one evaluation: trial scores and
// min/max/mean on success, error text and a trace on failure.
type Metadata map[string]interface{}

// Config holds evaluation parameters.
type Config struct {
	// NumTrials is how many independent rollouts are averaged per candidate.
	NumTrials int `yaml:"num_trials"`
	// TrialTimeout bounds the wall clock of a single rollout. A candidate
	// that blows the budget scores FailedFitness.
	TrialTimeout time.Duration `yaml:"trial_timeout"`
	// Concurrency bounds how many trials run at once. Each trial gets its
	// own interpreter instance, so trials never share interpreter state.
	Concurrency int `yaml:"concurrency"`
	// Seed is the base random seed; trial i uses Seed+i, which makes
	// evaluation of a deterministic behavior idempotent.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the default evaluation parameters.
func DefaultConfig() Config {
	return Config{
		NumTrials:    10,
		TrialTimeout: 2 * time.Second,
		Concurrency:  4,
		Seed:         1,
	}
}

// Evaluator validates and scores candidate programs against an environment.
type Evaluator struct {
	env *environment.Environment
	cfg Config
}

// New creates an Evaluator. Configuration errors are fatal here; nothing
// later in the evaluation path returns an error.
func New(env *environment.Environment, cfg Config) (*Evaluator, error) {
	if env == nil {
		return nil, errs.New(errs.InvalidInput, "environment is required")
	}
	if cfg.NumTrials <= 0 {
		return nil, errs.New(errs.ValidationFailed, "num trials must be positive")
	}
	if cfg.TrialTimeout <= 0 {
		return nil, errs.New(errs.ValidationFailed, "trial timeout must be positive")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Evaluator{env: env, cfg: cfg}, nil
}

// sandboxSymbols returns the stdlib subset interpreted candidates may
// import. Deliberately tiny: enough for geometry and bookkeeping, no os,
// net, syscall, unsafe or reflection.
func sandboxSymbols() interp.Exports {
	return interp.Exports{
		"math/math":       stdlib.Symbols["math/math"],
		"sort/sort":       stdlib.Symbols["sort/sort"],
		"strconv/strconv": stdlib.Symbols["strconv/strconv"],
		"strings/strings": stdlib.Symbols["strings/strings"],
	}
}

// normalizeSource strips an optional package clause so the snippet can be
// fed to the interpreter in declaration mode.
func normalizeSource(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "package ") {
			lines[i] = ""
		}
		break
	}
	return strings.Join(lines, "\n")
}

// IsValid reports whether the candidate source parses as Go. The source is
// never executed here.
func (e *Evaluator) IsValid(source string) bool {
	fset := token.NewFileSet()
	wrapped := "package candidate\n\n" + normalizeSource(source)
	_, err := parser.ParseFile(fset, "candidate.go", wrapped, 0)
	return err == nil
}

// loadBehavior compiles the candidate in a fresh sandboxed interpreter and
// extracts its entry point, adapting it to the environment's Behavior type.
// The yaegi interpreter is not safe for concurrent use, so every caller
// gets its own instance.
func (e *Evaluator) loadBehavior(source string) (behavior environment.Behavior, err error) {
	// yaegi panics instead of returning an error on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			behavior = nil
			err = errs.WithFields(
				errs.New(errs.EvaluationFailed, "interpreter panic"),
				errs.Fields{"panic": fmt.Sprintf("%v", r)})
		}
	}()

	i := interp.New(interp.Options{})
	if uerr := i.Use(sandboxSymbols()); uerr != nil {
		return nil, errs.Wrap(uerr, errs.EvaluationFailed, "failed to load sandbox symbols")
	}

	if _, eerr := i.Eval(normalizeSource(source)); eerr != nil {
		return nil, errs.Wrap(eerr, errs.EvaluationFailed, "candidate failed to compile")
	}

	v, eerr := i.Eval(EntryPoint)
	if eerr != nil || !v.IsValid() {
		return nil, errs.New(errs.InvalidCandidate, "missing entry point")
	}
	fn, ok := v.Interface().(behaviorFunc)
	if !ok {
		return nil, errs.New(errs.InvalidCandidate, "missing entry point")
	}

	return func(state environment.State, self, threat environment.Position) (float64, float64) {
		s := map[string]float64{
			"step":      float64(state.Step),
			"width":     state.Width,
			"height":    state.Height,
			"num_alive": float64(state.NumAlive),
		}
		return fn(s, [2]float64{self.X, self.Y}, [2]float64{threat.X, threat.Y})
	}, nil
}

type trialResult struct {
	score float64
	err   error
}

// runTrialBounded runs one rollout with a wall-clock budget. A trial that
// does not finish in time is abandoned; its goroutine cannot be killed, so a
// truly non-terminating candidate leaks one goroutine per trial until the
// process exits. See the sandbox note on resource limits.
func (e *Evaluator) runTrialBounded(ctx context.Context, behavior environment.Behavior, seed int64) (float64, error) {
	done := make(chan trialResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- trialResult{err: errs.WithFields(
					errs.New(errs.EvaluationFailed, "trial panicked"),
					errs.Fields{"panic": fmt.Sprintf("%v", r), "trace": string(debug.Stack())})}
			}
		}()
		done <- trialResult{score: e.env.RunTrial(behavior, seed)}
	}()

	timer := time.NewTimer(e.cfg.TrialTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.score, res.err
	case <-ctx.Done():
		return 0, errs.Wrap(ctx.Err(), errs.Canceled, "evaluation canceled")
	case <-timer.C:
		return 0, errs.New(errs.Timeout, "trial exceeded time budget")
	}
}

// Evaluate scores a candidate across NumTrials independent rollouts and
// returns the mean fitness with per-trial metadata. Failures of any kind
// yield FailedFitness and an error description in metadata; Evaluate itself
// never fails.
func (e *Evaluator) Evaluate(ctx context.Context, source string) (float64, Metadata) {
	// Compile once up front so that compile errors and missing entry points
	// are classified before any trial spends its budget.
	if _, err := e.loadBehavior(source); err != nil {
		return FailedFitness, failureMetadata(err)
	}

	scores := make([]float64, e.cfg.NumTrials)
	trialErrs := make([]error, e.cfg.NumTrials)

	p := pool.New().WithMaxGoroutines(e.cfg.Concurrency)
	for i := 0; i < e.cfg.NumTrials; i++ {
		i := i
		p.Go(func() {
			behavior, err := e.loadBehavior(source)
			if err != nil {
				trialErrs[i] = err
				return
			}
			scores[i], trialErrs[i] = e.runTrialBounded(ctx, behavior, e.cfg.Seed+int64(i))
		})
	}
	p.Wait()

	for _, err := range trialErrs {
		if err != nil {
			return FailedFitness, failureMetadata(err)
		}
	}

	sum := 0.0
	min := scores[0]
	max := scores[0]
	for _, s := range scores {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	mean := sum / float64(len(scores))

	return mean, Metadata{
		"trials":    e.cfg.NumTrials,
		"scores":    scores,
		"avg_score": mean,
		"min_score": min,
		"max_score": max,
	}
}

func failureMetadata(err error) Metadata {
	md := Metadata{"error": err.Error()}
	var serr *errs.Error
	if errors.As(err, &serr) {
		if trace, ok := serr.Fields()["trace"]; ok {
			md["trace"] = trace
		}
	}
	return md
}
