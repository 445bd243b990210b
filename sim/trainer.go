package sim

import (
	"errors"
	"io"
	"log"
)

// DefaultMaxSteps is the per-episode step cutoff applied when a caller
// passes a non-positive limit. It guarantees termination even when the
// policy never reaches the goal, e.g. a fully enclosed start.
const DefaultMaxSteps = 1000

var (
	ErrNilAgent = errors.New("trainer requires an agent")
	ErrNilWorld = errors.New("trainer requires a world")
)

// Trainer drives the agent/world interaction loop one episode at a
// time and extracts a greedy path from the learned table afterwards.
//
// A trainer exclusively owns its agent and world while running; no two
// trainers may train against the same pair concurrently.
type Trainer struct {
	agent  Agent
	world  World
	logger *log.Logger

	currentPath  []Position // positions of the in-progress or most recent episode
	visitedCells []Position // every position visited across the run, duplicates included
}

// NewTrainer creates a trainer for the given agent and world. The
// logger may be nil.
func NewTrainer(agent Agent, world World, logger *log.Logger) (*Trainer, error) {
	if agent == nil {
		return nil, ErrNilAgent
	}
	if world == nil {
		return nil, ErrNilWorld
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Trainer{
		agent:  agent,
		world:  world,
		logger: logger,
	}, nil
}

// TrainEpisode runs one episode from the start cell until the goal is
// reached or maxSteps is hit, updating the agent's table after every
// step. It returns the total reward and the number of steps taken.
//
// An episode that hits the cutoff without reaching the goal is an
// ordinary result, not an error.
func (t *Trainer) TrainEpisode(maxSteps int) (float64, int) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	t.agent.Reset()
	t.currentPath = []Position{t.agent.Position()}
	t.visitedCells = append(t.visitedCells, t.agent.Position())

	var totalReward float64
	steps := 0
	done := false

	for !done && steps < maxSteps {
		state := t.agent.State()
		action := t.agent.ChooseAction(state)

		next, reward, stepDone := t.agent.Step(action)

		t.currentPath = append(t.currentPath, t.agent.Position())
		t.visitedCells = append(t.visitedCells, t.agent.Position())

		t.agent.UpdateQ(state, action, reward, next, stepDone)

		totalReward += reward
		steps++
		done = stepDone

		if steps%100 == 0 {
			t.logger.Printf("step %d, state: %v, action: %s, reward: %.2f, done: %t",
				steps, state, action, reward, done)
		}
	}

	t.logger.Printf("episode completed: steps: %d, total reward: %.2f, goal reached: %t",
		steps, totalReward, done)

	return totalReward, steps
}

// FindOptimalPath resets the agent and greedily follows the learned
// table with no exploration, recording each visited position. It stops
// on goal arrival, on maxSteps, or on a period-2 oscillation (current
// position equal to the position two steps prior), which guards
// against a converged-but-degenerate policy alternating between two
// cells forever. The oscillation check starts after the third step:
// rotations leave the position unchanged, so an opening pair of turns
// would otherwise trip it.
//
// A truncated path is a result for the caller to interpret, not an
// error.
func (t *Trainer) FindOptimalPath(maxSteps int) []Position {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	t.agent.Reset()
	path := []Position{t.agent.Position()}

	steps := 0
	done := false

	for !done && steps < maxSteps {
		state := t.agent.State()
		action := t.agent.GreedyAction(state)

		_, _, done = t.agent.Step(action)
		path = append(path, t.agent.Position())
		steps++

		if len(path) >= 4 && path[len(path)-1] == path[len(path)-3] {
			t.logger.Printf("greedy rollout oscillating at %v after %d steps", t.agent.Position(), steps)
			break
		}
	}

	return path
}

// CurrentPath returns a copy of the in-progress or most recent
// episode's path.
func (t *Trainer) CurrentPath() []Position {
	return clonePositions(t.currentPath)
}

// VisitedCells returns a copy of every position visited across the
// run, in order, duplicates included.
func (t *Trainer) VisitedCells() []Position {
	return clonePositions(t.visitedCells)
}

func clonePositions(src []Position) []Position {
	out := make([]Position, len(src))
	copy(out, src)
	return out
}
