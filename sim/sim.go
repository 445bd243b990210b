// Package sim defines the grid-world reinforcement-learning core: the
// world and agent contracts, the shared value types they exchange, and
// the trainer that drives their interaction loop.
//
// Implementations live in subpackages (sim/gridworld, sim/qlearn); the
// orchestration layer owns the instances and passes explicit handles,
// no component assumes a single ambient world or agent.
package sim

// World holds the static geometry of a grid MDP: a square grid with
// obstacles, a start cell and a goal cell. Geometry is immutable
// between Reset calls.
type World interface {
	// Size returns the side length of the square grid.
	Size() int

	// IsObstacle reports whether the cell holds an obstacle. Cells
	// outside the grid are not obstacles; bounds are checked
	// separately by callers.
	IsObstacle(pos Position) bool

	// StartPosition returns the agent's episode start cell.
	StartPosition() Position

	// GoalPosition returns the goal cell.
	GoalPosition() Position

	// Obstacles returns the positions of all obstacle cells.
	Obstacles() []Position

	// Reset regenerates the geometry in place. It fails when the
	// configuration cannot host a distinct start and goal.
	Reset() error
}

// Agent owns the mutable policy state: the action-value table and the
// current pose. One agent is bound to one world for its lifetime.
type Agent interface {
	// Reset restores the pose to the world's start cell facing North
	// and returns the resulting state. The value table is untouched.
	Reset() State

	// State returns the current (position, direction) state.
	State() State

	// ChooseAction picks an action for the state with the agent's
	// epsilon-greedy policy.
	ChooseAction(state State) Action

	// GreedyAction picks the pure-exploitation action for the state,
	// ties broken by lowest action index.
	GreedyAction(state State) Action

	// Step executes the action against the world and returns the next
	// state, the reward, and whether the episode is done. Invalid
	// moves are not errors: the pose is left unchanged and the
	// collision penalty is returned.
	Step(action Action) (State, float64, bool)

	// UpdateQ applies the one-step tabular Q-learning update for the
	// observed transition.
	UpdateQ(state State, action Action, reward float64, next State, done bool)

	// Position returns the agent's current cell.
	Position() Position

	// Direction returns the agent's current facing direction.
	Direction() Direction

	// TableSnapshot returns a deep copy of the action-value table as a
	// state-key to action-value-vector mapping.
	TableSnapshot() map[State][]float64

	// RestoreTable replaces the action-value table with the given
	// snapshot.
	RestoreTable(snapshot map[State][]float64)
}
