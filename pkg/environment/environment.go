// Package environment implements the deterministic predator-prey simulation
// used to score candidate behaviors. A trial places prey and predators at
// seeded-random positions, steps the world forward while the behavior steers
// each living prey away from its nearest predator, and folds survival time,
// distance margin and final survivor count into a single fitness score.
package environment

import (
	"math"
	"math/rand"

	"github.com/XiaoConstantine/funsearch-go/pkg/errors"
)

// Position is a point in the bounded 2D plane.
type Position struct {
	X float64
	Y float64
}

// State is the world snapshot handed to a behavior on every step.
type State struct {
	Step     int
	Width    float64
	Height   float64
	NumAlive int
}

// Behavior steers one prey agent for one step. It receives the world state,
// the prey's own position and the position of its nearest predator, and
// returns a direction vector. The vector is normalized to unit length and
// scaled by the prey speed before being applied; a panic or a non-finite
// component means the prey does not move that step.
type Behavior func(state State, self Position, threat Position) (dx, dy float64)

// Fitness component weights. Three competing objectives keep degenerate
// strategies (corner-camping, freezing) from dominating.
const (
	survivalWeight = 100.0
	distanceWeight = 0.5
	aliveWeight    = 50.0
)

// Config holds the immutable parameters of a simulation run.
type Config struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	NumPrey         int     `yaml:"num_prey"`
	NumPredators    int     `yaml:"num_predators"`
	MaxSteps        int     `yaml:"max_steps"`
	PredatorSpeed   float64 `yaml:"predator_speed"`
	PreySpeed       float64 `yaml:"prey_speed"`
	CaptureDistance float64 `yaml:"capture_distance"`
}

// DefaultConfig returns the default simulation parameters.
func DefaultConfig() Config {
	return Config{
		Width:           100.0,
		Height:          100.0,
		NumPrey:         5,
		NumPredators:    2,
		MaxSteps:        200,
		PredatorSpeed:   1.5,
		PreySpeed:       1.0,
		CaptureDistance: 2.0,
	}
}

// Environment simulates the predator-prey world.
type Environment struct {
	cfg Config
}

// New creates an Environment, validating the configuration. Configuration
// errors are the only fatal errors in this package; everything that happens
// inside a trial is contained.
func New(cfg Config) (*Environment, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.ValidationFailed, "environment bounds must be positive"),
			errors.Fields{"width": cfg.Width, "height": cfg.Height})
	}
	if cfg.NumPrey <= 0 || cfg.NumPredators <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.ValidationFailed, "agent counts must be positive"),
			errors.Fields{"num_prey": cfg.NumPrey, "num_predators": cfg.NumPredators})
	}
	if cfg.MaxSteps <= 0 {
		return nil, errors.New(errors.ValidationFailed, "max steps must be positive")
	}
	if cfg.CaptureDistance < 0 {
		return nil, errors.New(errors.ValidationFailed, "capture distance must be non-negative")
	}
	return &Environment{cfg: cfg}, nil
}

// Config returns the environment configuration.
func (e *Environment) Config() Config {
	return e.cfg
}

type agent struct {
	x, y  float64
	alive bool
}

func (a *agent) distanceTo(b *agent) float64 {
	dx := a.x - b.x
	dy := a.y - b.y
	return math.Sqrt(dx*dx + dy*dy)
}

func (e *Environment) placeAgents(rng *rand.Rand) (prey, predators []*agent) {
	prey = make([]*agent, e.cfg.NumPrey)
	for i := range prey {
		prey[i] = &agent{
			x:     rng.Float64() * e.cfg.Width,
			y:     rng.Float64() * e.cfg.Height,
			alive: true,
		}
	}
	predators = make([]*agent, e.cfg.NumPredators)
	for i := range predators {
		predators[i] = &agent{
			x:     rng.Float64() * e.cfg.Width,
			y:     rng.Float64() * e.cfg.Height,
			alive: true,
		}
	}
	return prey, predators
}

func (e *Environment) clip(x, y float64) (float64, float64) {
	x = math.Max(0, math.Min(e.cfg.Width, x))
	y = math.Max(0, math.Min(e.cfg.Height, y))
	return x, y
}

// nearest returns the closest agent in candidates to from, skipping dead
// ones. Ties break by iteration order.
func nearest(from *agent, candidates []*agent, aliveOnly bool) *agent {
	var best *agent
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if aliveOnly && !c.alive {
			continue
		}
		if d := from.distanceTo(c); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// callBehavior invokes the behavior, converting panics and non-finite
// direction components into "no movement". The failure is swallowed here so
// that a single bad step never aborts the trial.
func callBehavior(behavior Behavior, state State, self, threat Position) (dx, dy float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			dx, dy, ok = 0, 0, false
		}
	}()
	dx, dy = behavior(state, self, threat)
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return 0, 0, false
	}
	return dx, dy, true
}

// step advances the world by one tick and returns the per-step survival and
// distance contributions.
func (e *Environment) step(stepIdx int, prey, predators []*agent, behavior Behavior) (survival int, distance float64) {
	numAlive := 0
	for _, p := range prey {
		if p.alive {
			numAlive++
		}
	}

	state := State{
		Step:     stepIdx,
		Width:    e.cfg.Width,
		Height:   e.cfg.Height,
		NumAlive: numAlive,
	}

	// Prey move first, then predators, then captures are resolved.
	for _, p := range prey {
		if !p.alive {
			continue
		}

		threat := nearest(p, predators, false)

		dx, dy, ok := callBehavior(behavior, state,
			Position{X: p.x, Y: p.y},
			Position{X: threat.x, Y: threat.y})
		if ok {
			if norm := math.Sqrt(dx*dx + dy*dy); norm > 0 {
				dx = dx / norm * e.cfg.PreySpeed
				dy = dy / norm * e.cfg.PreySpeed
				p.x, p.y = e.clip(p.x+dx, p.y+dy)
			}
		}

		survival++
		distance += p.distanceTo(threat)
	}

	for _, pred := range predators {
		target := nearest(pred, prey, true)
		if target == nil {
			continue
		}
		dx := target.x - pred.x
		dy := target.y - pred.y
		if norm := math.Sqrt(dx*dx + dy*dy); norm > 0 {
			dx, dy = dx/norm, dy/norm
		}
		pred.x, pred.y = e.clip(pred.x+dx*e.cfg.PredatorSpeed, pred.y+dy*e.cfg.PredatorSpeed)
	}

	for _, pred := range predators {
		for _, p := range prey {
			if p.alive && pred.distanceTo(p) < e.cfg.CaptureDistance {
				p.alive = false
			}
		}
	}

	return survival, distance
}

// RunTrial runs one full rollout of the behavior and returns its fitness.
// The rollout is fully deterministic for a given seed.
func (e *Environment) RunTrial(behavior Behavior, seed int64) float64 {
	rng := rand.New(rand.NewSource(seed))
	prey, predators := e.placeAgents(rng)

	survivalSteps := 0
	distanceScore := 0.0

	for step := 0; step < e.cfg.MaxSteps; step++ {
		survival, distance := e.step(step, prey, predators, behavior)
		survivalSteps += survival
		distanceScore += distance

		alive := false
		for _, p := range prey {
			if p.alive {
				alive = true
				break
			}
		}
		if !alive {
			break
		}
	}

	finalAlive := 0
	for _, p := range prey {
		if p.alive {
			finalAlive++
		}
	}

	avgSurvival := float64(survivalSteps) / float64(e.cfg.NumPrey*e.cfg.MaxSteps)
	avgDistance := distanceScore / math.Max(1, float64(survivalSteps))
	aliveRatio := float64(finalAlive) / float64(e.cfg.NumPrey)

	return avgSurvival*survivalWeight + avgDistance*distanceWeight + aliveRatio*aliveWeight
}

// TrialStats summarizes a multi-trial evaluation.
type TrialStats struct {
	Scores []float64
	Min    float64
	Max    float64
	Mean   float64
	Trials int
}

// Evaluate runs numTrials independent trials with seeds baseSeed..baseSeed+n-1
// and returns the mean fitness with per-trial statistics.
func (e *Environment) Evaluate(behavior Behavior, numTrials int, baseSeed int64) (float64, TrialStats) {
	if numTrials <= 0 {
		numTrials = 1
	}

	scores := make([]float64, numTrials)
	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)

	for i := 0; i < numTrials; i++ {
		score := e.RunTrial(behavior, baseSeed+int64(i))
		scores[i] = score
		sum += score
		min = math.Min(min, score)
		max = math.Max(max, score)
	}

	mean := sum / float64(numTrials)
	return mean, TrialStats{
		Scores: scores,
		Min:    min,
		Max:    max,
		Mean:   mean,
		Trials: numTrials,
	}
}
