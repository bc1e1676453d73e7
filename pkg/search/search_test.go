package search

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/funsearch-go/pkg/archive"
	"github.com/XiaoConstantine/funsearch-go/pkg/environment"
	"github.com/XiaoConstantine/funsearch-go/pkg/evaluator"
	"github.com/XiaoConstantine/funsearch-go/pkg/population"
	"github.com/XiaoConstantine/funsearch-go/pkg/sampler"
)

// mockSampler lets tests script the generator boundary.
type mockSampler struct {
	mock.Mock
}

func (m *mockSampler) Sample(ctx context.Context, prompt string, contextPrograms []string) (string, error) {
	args := m.Called(ctx, prompt, contextPrograms)
	return args.String(0), args.Error(1)
}

// captureRecorder collects archive entries in memory.
type captureRecorder struct {
	entries []archive.Entry
}

func (c *captureRecorder) Record(_ context.Context, e archive.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func testSearch(t *testing.T, smp sampler.Sampler, opts ...Option) (*Search, *population.Store) {
	t.Helper()

	env, err := environment.New(environment.Config{
		Width: 40, Height: 40,
		NumPrey: 2, NumPredators: 1,
		MaxSteps:      20,
		PredatorSpeed: 1.5, PreySpeed: 1,
		CaptureDistance: 2,
	})
	require.NoError(t, err)

	eval, err := evaluator.New(env, evaluator.Config{
		NumTrials:    2,
		TrialTimeout: 5 * time.Second,
		Concurrency:  2,
		Seed:         3,
	})
	require.NoError(t, err)

	store, err := population.NewStore(10)
	require.NoError(t, err)

	s, err := New(eval, store, smp, opts...)
	require.NoError(t, err)
	return s, store
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestSeedInitializesStore(t *testing.T) {
	s, store := testSearch(t, sampler.NewMockSampler(1))

	assert.Empty(t, s.BestProgram())

	s.Seed(context.Background(), sampler.SeedBehavior)
	assert.Equal(t, 1, store.Size())
	assert.Equal(t, sampler.SeedBehavior, s.BestProgram())
	assert.Greater(t, s.Statistics().Search.BestFitness, 0.0)
}

func TestRunWithMockSampler(t *testing.T) {
	s, _ := testSearch(t, sampler.NewMockSampler(1), WithLogInterval(0))

	ctx := context.Background()
	s.Seed(ctx, sampler.SeedBehavior)
	s.Run(ctx, 5)

	stats := s.Statistics()
	assert.Equal(t, 5, stats.Search.TotalProposed)
	assert.Equal(t, 5, stats.Search.TotalValid)
	assert.Equal(t, 5, stats.Store.Generation)
	assert.GreaterOrEqual(t, stats.Store.Size, 1)
	assert.NotEmpty(t, s.BestProgram())
}

func TestInvalidSyntaxOutcome(t *testing.T) {
	smp := new(mockSampler)
	smp.On("Sample", mock.Anything, mock.Anything, mock.Anything).Return("func Behavior( {", nil)

	s, store := testSearch(t, smp)
	outcome := s.RunIteration(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, "invalid_syntax", outcome.Reason)
	assert.Equal(t, evaluator.FailedFitness, outcome.Fitness)

	stats := s.Statistics()
	assert.Equal(t, 1, stats.Search.TotalProposed)
	assert.Equal(t, 0, stats.Search.TotalValid)
	assert.Equal(t, 0, store.Size())
}

func TestSamplerErrorOutcome(t *testing.T) {
	smp := new(mockSampler)
	smp.On("Sample", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)

	s, _ := testSearch(t, smp)
	outcome := s.RunIteration(context.Background())

	assert.False(t, outcome.Success)
	assert.Equal(t, "sampler_error", outcome.Reason)
	assert.Equal(t, 1, s.Statistics().Search.TotalProposed)
}

func TestFailedEvaluationIsContained(t *testing.T) {
	// Valid syntax but no entry point: the iteration reports success with the
	// fitness floor instead of propagating a failure.
	smp := new(mockSampler)
	smp.On("Sample", mock.Anything, mock.Anything, mock.Anything).Return("var x = 1", nil)

	s, _ := testSearch(t, smp)
	outcome := s.RunIteration(context.Background())

	assert.True(t, outcome.Success)
	assert.Equal(t, evaluator.FailedFitness, outcome.Fitness)
	assert.Equal(t, "missing entry point", outcome.Metadata["error"])
}

func TestParentLineageIsRecorded(t *testing.T) {
	rec := &captureRecorder{}
	s, store := testSearch(t, sampler.NewMockSampler(2), WithRecorder(rec), WithLogInterval(0))

	ctx := context.Background()
	s.Seed(ctx, sampler.SeedBehavior)
	s.RunIteration(ctx)

	require.Len(t, rec.entries, 2)
	seedEntry, childEntry := rec.entries[0], rec.entries[1]
	assert.Empty(t, seedEntry.ParentID)
	assert.Equal(t, seedEntry.CandidateID, childEntry.ParentID)

	// The seed is the only member, so it must have been the sampled parent.
	best := store.BestEver()
	require.NotNil(t, best)
}

func TestBestFitnessStartsAtNegativeInfinity(t *testing.T) {
	s, _ := testSearch(t, sampler.NewMockSampler(1))
	assert.True(t, math.IsInf(s.Statistics().Search.BestFitness, -1))
}
