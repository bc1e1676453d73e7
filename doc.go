// Package funsearch is a Go implementation of an evolutionary program search
// engine in the style of FunSearch: a generate-evaluate-select loop that
// evolves short behavior programs for prey agents in a simulated
// predator-prey world, guided by a generative sampler.
//
// The search loop samples a candidate program from an LLM (or a mock
// sampler), evaluates it inside a sandboxed interpreter against a
// deterministic multi-agent simulation, and offers the scored candidate to a
// bounded, fitness-ranked population store. Bad candidates - invalid syntax,
// missing entry points, panics, non-terminating loops - are converted into
// data (a fitness floor plus diagnostics) rather than errors, so the loop can
// run unattended for arbitrarily many iterations.
//
// Key Components:
//
//   - environment: deterministic predator-prey rollout that scores one
//     behavior across repeated trials. Fitness rewards survival time,
//     distance kept from the nearest predator, and the final survivor count.
//
//   - evaluator: validates candidate source with go/parser and executes it
//     in an isolated yaegi interpreter with a restricted standard library
//     and a per-trial wall-clock budget.
//
//   - population: bounded min-heap of scored candidates with a separately
//     tracked best-ever snapshot and elite-biased parent sampling.
//
//   - sampler: the narrow text-in/text-out boundary to the program
//     generator. A seeded mock is the default; an Anthropic-backed sampler
//     is provided for real model-guided search.
//
//   - search: the orchestrator tying the pieces together, with running
//     statistics and periodic progress logging.
//
// Simple Example:
//
//	import (
//	    "context"
//
//	    "github.com/XiaoConstantine/funsearch-go/pkg/environment"
//	    "github.com/XiaoConstantine/funsearch-go/pkg/evaluator"
//	    "github.com/XiaoConstantine/funsearch-go/pkg/population"
//	    "github.com/XiaoConstantine/funsearch-go/pkg/sampler"
//	    "github.com/XiaoConstantine/funsearch-go/pkg/search"
//	)
//
//	func main() {
//	    env, _ := environment.New(environment.DefaultConfig())
//	    eval, _ := evaluator.New(env, evaluator.DefaultConfig())
//	    store, _ := population.NewStore(100)
//	    smp := sampler.NewMockSampler(42)
//
//	    s, _ := search.New(eval, store, smp)
//	    ctx := context.Background()
//	    s.Seed(ctx, sampler.SeedBehavior)
//	    s.Run(ctx, 100)
//	    println(s.BestProgram())
//	}
//
// For configuration-file driven runs, see pkg/config and cmd/funsearch.
//
// FunSearch-Go is released under the MIT License.
package funsearch
