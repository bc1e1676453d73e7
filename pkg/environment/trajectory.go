package environment

import "math/rand"

// AgentSnapshot is one agent's position at a recorded step.
type AgentSnapshot struct {
	X     float64
	Y     float64
	Alive bool
}

// Frame captures all agent positions at one simulation step, before the
// step's moves are applied.
type Frame struct {
	Step      int
	Prey      []AgentSnapshot
	Predators []AgentSnapshot
}

// RecordTrajectory runs a rollout like RunTrial but returns per-step frames
// instead of a fitness score, for external visualization or replay. steps
// caps the recording; pass 0 to record up to MaxSteps.
func (e *Environment) RecordTrajectory(behavior Behavior, seed int64, steps int) []Frame {
	if steps <= 0 || steps > e.cfg.MaxSteps {
		steps = e.cfg.MaxSteps
	}

	rng := rand.New(rand.NewSource(seed))
	prey, predators := e.placeAgents(rng)
	frames := make([]Frame, 0, steps)

	for step := 0; step < steps; step++ {
		frame := Frame{
			Step:      step,
			Prey:      make([]AgentSnapshot, len(prey)),
			Predators: make([]AgentSnapshot, len(predators)),
		}
		for i, p := range prey {
			frame.Prey[i] = AgentSnapshot{X: p.x, Y: p.y, Alive: p.alive}
		}
		for i, p := range predators {
			frame.Predators[i] = AgentSnapshot{X: p.x, Y: p.y, Alive: true}
		}
		frames = append(frames, frame)

		e.step(step, prey, predators, behavior)

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

	return frames
}
