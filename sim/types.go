package sim

// Position identifies a cell in the grid by row and column. It is a
// value type so it can be compared and used as a map key directly.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the position offset by the given delta.
func (p Position) Add(delta Position) Position {
	return Position{Row: p.Row + delta.Row, Col: p.Col + delta.Col}
}

// ManhattanDistance returns the sum of absolute coordinate differences
// between two cells.
func ManhattanDistance(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Direction is the agent's facing orientation.
type Direction int

// Directions, encoded 0-3. Turning right increments, turning left
// decrements, both mod 4.
const (
	North Direction = iota
	East
	South
	West

	DirectionCount = 4
)

var directionNames = map[Direction]string{
	North: "North",
	East:  "East",
	South: "South",
	West:  "West",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "Unknown"
}

// Delta returns the grid offset of a single move along the direction.
func (d Direction) Delta() Position {
	switch d {
	case North:
		return Position{Row: -1, Col: 0}
	case East:
		return Position{Row: 0, Col: 1}
	case South:
		return Position{Row: 1, Col: 0}
	case West:
		return Position{Row: 0, Col: -1}
	}
	return Position{}
}

// Opposite returns the direction rotated by 180 degrees.
func (d Direction) Opposite() Direction {
	return (d + 2) % DirectionCount
}

// Action is one of the agent's four moves.
type Action int

// Actions, encoded 0-3. The encoding is part of the external contract:
// action-value vectors are indexed by it.
const (
	Forward Action = iota
	TurnRight
	TurnLeft
	Backward

	ActionCount = 4
)

var actionNames = map[Action]string{
	Forward:   "Forward",
	TurnRight: "Turn Right",
	TurnLeft:  "Turn Left",
	Backward:  "Backward",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether the action index is within the action space.
// Callers feeding external input into Agent.Step must check this; the
// agent itself does not.
func (a Action) Valid() bool {
	return a >= 0 && a < ActionCount
}

// State identifies the agent's situation for action-value lookup:
// position plus facing direction. It is a value type with structural
// equality, so it is directly usable as a table key.
type State struct {
	Pos Position  `json:"pos"`
	Dir Direction `json:"dir"`
}

// Reward schedule. A single consistent schedule for the whole system:
// reaching the goal ends the episode, bumping into a wall or obstacle
// leaves the agent in place, and every other step pays a small cost so
// shorter paths score higher.
const (
	GoalReward       = 10.0
	CollisionPenalty = -1.0
	StepCost         = -0.1
)
