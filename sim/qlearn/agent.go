/*
Package qlearn implements the sim.Agent contract with tabular
Q-learning.

The agent's state is its pose, position plus facing direction. Its four
actions move it forward or backward along the facing direction or
rotate it in place. It learns with the one-step tabular update rule
under an epsilon-greedy behavior policy; there are no eligibility
traces and no batching.
*/
package qlearn

import (
	"errors"
	"math/rand"
	"time"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// Construction errors.
var (
	ErrNilWorld               = errors.New("agent requires a world")
	ErrInvalidLearningRate    = errors.New("learning rate must be in (0, 1]")
	ErrInvalidDiscountFactor  = errors.New("discount factor must be in [0, 1]")
	ErrInvalidExplorationRate = errors.New("exploration rate must be in [0, 1]")
)

// Config holds the agent's construction parameters. The three
// hyperparameters are fixed for the agent's lifetime.
type Config struct {
	World           sim.World
	LearningRate    float64 // alpha, weight of each update
	DiscountFactor  float64 // gamma, weight of future rewards
	ExplorationRate float64 // epsilon, probability of a random action
	Rand            *rand.Rand
}

// Agent is a tabular Q-learning agent bound to a single world.
type Agent struct {
	world sim.World
	table *Table
	rng   *rand.Rand

	alpha   float64
	gamma   float64
	epsilon float64

	pos sim.Position
	dir sim.Direction
}

// New creates an agent positioned at the world's start cell facing
// North, with an empty table.
func New(cfg Config) (*Agent, error) {
	if cfg.World == nil {
		return nil, ErrNilWorld
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return nil, ErrInvalidLearningRate
	}
	if cfg.DiscountFactor < 0 || cfg.DiscountFactor > 1 {
		return nil, ErrInvalidDiscountFactor
	}
	if cfg.ExplorationRate < 0 || cfg.ExplorationRate > 1 {
		return nil, ErrInvalidExplorationRate
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	a := &Agent{
		world:   cfg.World,
		table:   NewTable(),
		rng:     rng,
		alpha:   cfg.LearningRate,
		gamma:   cfg.DiscountFactor,
		epsilon: cfg.ExplorationRate,
	}
	a.Reset()
	return a, nil
}

// Reset restores the pose to the world's start cell facing North and
// returns the resulting state. The table survives resets; it is
// cleared only by creating a new agent.
func (a *Agent) Reset() sim.State {
	a.pos = a.world.StartPosition()
	a.dir = sim.North
	return a.State()
}

// State returns the current (position, direction) state.
func (a *Agent) State() sim.State {
	return sim.State{Pos: a.pos, Dir: a.dir}
}

// Position returns the agent's current cell.
func (a *Agent) Position() sim.Position {
	return a.pos
}

// Direction returns the agent's current facing direction.
func (a *Agent) Direction() sim.Direction {
	return a.dir
}

// ChooseAction picks an action with the epsilon-greedy policy: with
// probability epsilon a uniformly random action, otherwise the greedy
// one.
func (a *Agent) ChooseAction(state sim.State) sim.Action {
	if a.rng.Float64() < a.epsilon {
		return sim.Action(a.rng.Intn(sim.ActionCount))
	}
	return a.table.ArgMax(state)
}

// GreedyAction picks the highest-valued action for the state, ties
// broken by lowest action index.
func (a *Agent) GreedyAction(state sim.State) sim.Action {
	return a.table.ArgMax(state)
}

// Step executes the action and returns the next state, the reward, and
// whether the episode is done.
//
// Forward and Backward move one cell along or against the facing
// direction; a move into a wall or obstacle is reverted and pays the
// collision penalty. TurnRight and TurnLeft rotate in place, never
// fail, and always pay the step cost: rotation is never a goal
// arrival, even when the agent already sits on the goal cell.
func (a *Agent) Step(action sim.Action) (sim.State, float64, bool) {
	switch action {
	case sim.TurnRight:
		a.dir = (a.dir + 1) % sim.DirectionCount
		return a.State(), sim.StepCost, false
	case sim.TurnLeft:
		a.dir = (a.dir + sim.DirectionCount - 1) % sim.DirectionCount
		return a.State(), sim.StepCost, false
	}

	candidate := a.pos
	switch action {
	case sim.Forward:
		candidate = a.pos.Add(a.dir.Delta())
	case sim.Backward:
		candidate = a.pos.Add(a.dir.Opposite().Delta())
	}

	if !a.validPosition(candidate) {
		return a.State(), sim.CollisionPenalty, false
	}

	a.pos = candidate
	if a.pos == a.world.GoalPosition() {
		return a.State(), sim.GoalReward, true
	}
	return a.State(), sim.StepCost, false
}

// UpdateQ applies the one-step tabular Q-learning update:
//
//	Q[s][a] += alpha * (r + gamma*max(Q[s']) - Q[s][a])
//
// with the bootstrap term dropped on terminal transitions.
func (a *Agent) UpdateQ(state sim.State, action sim.Action, reward float64, next sim.State, done bool) {
	v := a.table.Vector(state)

	target := reward
	if !done {
		target += a.gamma * a.table.Max(next)
	}
	v[action] += a.alpha * (target - v[action])
}

// Table returns the agent's action-value table.
func (a *Agent) Table() *Table {
	return a.table
}

// TableSnapshot returns a deep copy of the action-value table.
func (a *Agent) TableSnapshot() map[sim.State][]float64 {
	return a.table.Snapshot()
}

// RestoreTable replaces the action-value table with the snapshot.
func (a *Agent) RestoreTable(snapshot map[sim.State][]float64) {
	a.table.Restore(snapshot)
}

// validPosition reports whether the cell is inside the grid and free
// of obstacles.
func (a *Agent) validPosition(pos sim.Position) bool {
	size := a.world.Size()
	if pos.Row < 0 || pos.Row >= size || pos.Col < 0 || pos.Col >= size {
		return false
	}
	return !a.world.IsObstacle(pos)
}
