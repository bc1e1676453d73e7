// Package search implements the orchestration loop that ties sampling,
// evaluation and population management into a convergent search: ask the
// sampler for a candidate (seeded with an elite parent's source), validate
// and score it, offer it to the store, update running statistics, repeat.
package search

import (
	"context"
	"math"
	"time"

	"github.com/XiaoConstantine/funsearch-go/pkg/archive"
	errs "github.com/XiaoConstantine/funsearch-go/pkg/errors"
	"github.com/XiaoConstantine/funsearch-go/pkg/evaluator"
	"github.com/XiaoConstantine/funsearch-go/pkg/logging"
	"github.com/XiaoConstantine/funsearch-go/pkg/population"
	"github.com/XiaoConstantine/funsearch-go/pkg/sampler"
)

// Outcome reports the result of one iteration.
type Outcome struct {
	Success  bool               `json:"success"`
	Accepted bool               `json:"accepted"`
	Reason   string             `json:"reason,omitempty"`
	Fitness  float64            `json:"fitness"`
	Metadata evaluator.Metadata `json:"metadata,omitempty"`
}

// Stats holds the orchestrator's running counters. They live in an explicit
// struct, not package globals, so concurrent orchestrators (island-style
// search) never interfere.
type Stats struct {
	TotalProposed int     `json:"total_proposed"`
	TotalValid    int     `json:"total_valid"`
	TotalAccepted int     `json:"total_accepted"`
	BestFitness   float64 `json:"best_fitness"`
}

// Statistics combines the orchestrator's counters with the store's view.
type Statistics struct {
	Search Stats                 `json:"search"`
	Store  population.Statistics `json:"store"`
}

// Recorder receives one entry per evaluated candidate. *archive.Archive
// implements it.
type Recorder interface {
	Record(ctx context.Context, e archive.Entry) error
}

// Search drives the generate-evaluate-select loop. It is single-threaded:
// each iteration fully completes before the next begins.
type Search struct {
	eval        *evaluator.Evaluator
	store       *population.Store
	sampler     sampler.Sampler
	recorder    Recorder
	logger      *logging.Logger
	logInterval int
	stats       Stats
}

// Option configures a Search.
type Option func(*Search)

// WithRecorder attaches a lineage recorder. Recording failures are logged
// and ignored; the archive is diagnostics, not state.
func WithRecorder(r Recorder) Option {
	return func(s *Search) {
		s.recorder = r
	}
}

// WithLogInterval sets how many iterations pass between progress log lines
// (default 10, 0 disables).
func WithLogInterval(n int) Option {
	return func(s *Search) {
		s.logInterval = n
	}
}

// New creates a Search over the given collaborators.
func New(eval *evaluator.Evaluator, store *population.Store, smp sampler.Sampler, opts ...Option) (*Search, error) {
	if eval == nil || store == nil || smp == nil {
		return nil, errs.New(errs.InvalidInput, "evaluator, store and sampler are required")
	}

	s := &Search{
		eval:        eval,
		store:       store,
		sampler:     smp,
		logger:      logging.GetLogger(),
		logInterval: 10,
		stats:       Stats{BestFitness: math.Inf(-1)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seed evaluates the given source and inserts it unconditionally, bypassing
// acceptance competition. Call it once on an empty store before Run.
func (s *Search) Seed(ctx context.Context, source string) {
	fitness, metadata := s.eval.Evaluate(ctx, source)
	cand := population.NewCandidate(source, fitness, metadata, s.store.Generation(), "")
	s.store.Add(cand)
	if fitness > s.stats.BestFitness {
		s.stats.BestFitness = fitness
	}
	s.record(ctx, cand, true, metadata)

	s.logger.Info(ctx, "Initialized with seed program (fitness: %.2f)", fitness)
}

// RunIteration executes one round of the loop and returns its outcome.
// Candidate failures of every kind are data, not errors; only the sampler
// boundary can make an iteration fail outright, and that too is contained
// in the outcome.
func (s *Search) RunIteration(ctx context.Context) Outcome {
	parent := s.store.SampleParent()
	var contextPrograms []string
	parentID := ""
	if parent != nil {
		contextPrograms = []string{parent.Source}
		parentID = parent.ID
	}

	source, err := s.sampler.Sample(ctx, sampler.Prompt, contextPrograms)
	s.stats.TotalProposed++
	if err != nil {
		s.logger.Warn(ctx, "sampler failed: %v", err)
		return Outcome{Success: false, Reason: "sampler_error", Fitness: evaluator.FailedFitness}
	}

	if !s.eval.IsValid(source) {
		return Outcome{Success: false, Reason: "invalid_syntax", Fitness: evaluator.FailedFitness}
	}
	s.stats.TotalValid++

	fitness, metadata := s.eval.Evaluate(ctx, source)

	cand := population.NewCandidate(source, fitness, metadata, s.store.Generation(), parentID)
	accepted := s.store.Add(cand)
	if accepted {
		s.stats.TotalAccepted++
	}

	if fitness > s.stats.BestFitness {
		s.stats.BestFitness = fitness
		s.logger.Info(ctx, "New best fitness: %.2f", fitness)
	}

	s.record(ctx, cand, accepted, metadata)

	return Outcome{Success: true, Accepted: accepted, Fitness: fitness, Metadata: metadata}
}

// Run executes numIterations iterations, advancing the store's generation
// counter once per iteration regardless of outcome.
func (s *Search) Run(ctx context.Context, numIterations int) {
	start := time.Now()

	for i := 0; i < numIterations; i++ {
		s.RunIteration(ctx)
		s.store.IncrementGeneration()

		if s.logInterval > 0 && (i+1)%s.logInterval == 0 {
			st := s.store.Statistics()
			avg := 0.0
			if st.AvgFitness != nil {
				avg = *st.AvgFitness
			}
			s.logger.Info(ctx,
				"iteration %d/%d: elapsed=%.1fs samples=%d valid=%d accepted=%d best=%.2f size=%d avg=%.2f",
				i+1, numIterations, time.Since(start).Seconds(),
				s.stats.TotalProposed, s.stats.TotalValid, s.stats.TotalAccepted,
				s.stats.BestFitness, st.Size, avg)
		}
	}

	s.logger.Info(ctx, "search complete: total=%.1fs best=%.2f",
		time.Since(start).Seconds(), s.stats.BestFitness)
}

// BestProgram returns the source of the best candidate ever seen, or the
// empty string before any evaluation.
func (s *Search) BestProgram() string {
	best := s.store.BestEver()
	if best == nil {
		return ""
	}
	return best.Source
}

// Statistics returns the combined search and store statistics.
func (s *Search) Statistics() Statistics {
	return Statistics{
		Search: s.stats,
		Store:  s.store.Statistics(),
	}
}

func (s *Search) record(ctx context.Context, cand *population.Candidate, accepted bool, metadata evaluator.Metadata) {
	if s.recorder == nil {
		return
	}

	errText := ""
	if e, ok := metadata["error"].(string); ok {
		errText = e
	}
	entry := archive.Entry{
		CandidateID: cand.ID,
		ParentID:    cand.ParentID,
		Generation:  cand.Generation,
		Fitness:     cand.Fitness,
		Accepted:    accepted,
		Error:       errText,
		Source:      cand.Source,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn(ctx, "failed to archive candidate %s: %v", cand.ID, err)
	}
}
