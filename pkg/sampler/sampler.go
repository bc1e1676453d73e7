// Package sampler defines the narrow boundary to the candidate-program
// generator: prompt text in, program text out. The search core depends only
// on the Sampler interface; whether candidates come from a seeded mock or a
// hosted model is invisible to it.
package sampler

import (
	"context"
	"math/rand"
	"sync"
)

// Prompt is the fixed task description handed to the generator on every
// iteration. It documents the exact entry-point contract the evaluator
// expects.
const Prompt = `Generate a Go function named 'Behavior' that controls how a prey agent moves
in a predator-prey environment. The function must have this exact signature:

    func Behavior(state map[string]float64, self [2]float64, threat [2]float64) (float64, float64)

- state carries "step", "width", "height" and "num_alive"
- self is the (x, y) position of the prey agent
- threat is the (x, y) position of the nearest predator
- the two returned values are the (dx, dy) direction to move

Write plain Go declarations without a package clause. Only a small standard
library subset is available (math, sort, strconv, strings). Create a clever
strategy to avoid predators and survive as long as possible.`

// Sampler produces a new candidate program from a prompt and optional
// context programs (typically the parent candidate's source).
type Sampler interface {
	Sample(ctx context.Context, prompt string, context []string) (string, error)
}

// SeedBehavior is the canonical starting program: flee straight away from
// the nearest predator.
const SeedBehavior = `import "math"

func Behavior(state map[string]float64, self [2]float64, threat [2]float64) (float64, float64) {
	dx := self[0] - threat[0]
	dy := self[1] - threat[1]
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist > 0 {
		return dx / dist, dy / dist
	}
	return 0, 0
}
`

// mockBehaviors are the strategies the mock sampler draws from: flee,
// zigzag when cornered, and edge-seeking.
var mockBehaviors = []string{
	SeedBehavior,
	`import "math"

func Behavior(state map[string]float64, self [2]float64, threat [2]float64) (float64, float64) {
	dx := self[0] - threat[0]
	dy := self[1] - threat[1]
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist > 0 && dist < 5 {
		return dy / dist, -dx / dist
	}
	if dist > 0 {
		return dx / dist, dy / dist
	}
	return 0, 0
}
`,
	`import "math"

func Behavior(state map[string]float64, self [2]float64, threat [2]float64) (float64, float64) {
	dx := self[0] - threat[0]
	dy := self[1] - threat[1]
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 10 {
		ex := 1.0
		if self[0] >= state["width"]/2 {
			ex = -1.0
		}
		ey := 1.0
		if self[1] >= state["height"]/2 {
			ey = -1.0
		}
		return ex, ey
	}
	return 0, 0
}
`,
}

// MockSampler returns predefined behavior programs at random. It stands in
// for a generative model in tests and offline runs.
type MockSampler struct {
	mu        sync.Mutex
	rng       *rand.Rand
	behaviors []string
}

// NewMockSampler creates a mock sampler with a deterministic sequence for a
// given seed.
func NewMockSampler(seed int64) *MockSampler {
	return &MockSampler{
		rng:       rand.New(rand.NewSource(seed)),
		behaviors: mockBehaviors,
	}
}

// Sample implements Sampler. The prompt and context are ignored; a random
// predefined behavior is returned.
func (m *MockSampler) Sample(_ context.Context, _ string, _ []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.behaviors[m.rng.Intn(len(m.behaviors))], nil
}
