/*
Package gridworld implements the sim.World contract over a randomly
generated square grid.

Generation samples a uniform subset of cells as obstacles, then picks a
start cell and a goal cell from the remaining empty cells, preferring a
goal at least max(3, size/3) Manhattan distance from the start when one
exists. Geometry is fixed between Reset calls; the agent marker on the
grid is the only mutable overlay during episodes.
*/
package gridworld

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

const (
	minGridSize = 2
	maxGridSize = 50
)

// Generation errors. Both are configuration errors: fatal to the
// generation attempt, recoverable only by retrying with different
// parameters.
var (
	ErrInvalidDimensions   = errors.New("grid size out of range")
	ErrInvalidDensity      = errors.New("obstacle density must be in [0, 1]")
	ErrNotEnoughEmptyCells = errors.New("not enough empty cells for agent and goal")
)

// CellKind is the content of a single grid cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellObstacle
	CellAgent
	CellGoal
)

// World is a square grid MDP geometry: obstacles, a start cell and a
// goal cell.
type World struct {
	size    int
	density float64
	rng     *rand.Rand

	grid      [][]CellKind
	obstacles []sim.Position
	start     sim.Position
	goal      sim.Position
}

// Option customizes world construction.
type Option func(*World)

// WithRand sets the random source used for generation. Tests use this
// for deterministic layouts.
func WithRand(rng *rand.Rand) Option {
	return func(w *World) {
		w.rng = rng
	}
}

// New creates and generates a size x size world where roughly
// density*size*size cells are obstacles.
func New(size int, density float64, opts ...Option) (*World, error) {
	if size < minGridSize || size > maxGridSize {
		return nil, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidDimensions, size, minGridSize, maxGridSize)
	}
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDensity, density)
	}

	w := &World{
		size:    size,
		density: density,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if err := w.Reset(); err != nil {
		return nil, err
	}
	return w, nil
}

// Reset regenerates the geometry in place: new obstacles, new start,
// new goal.
func (w *World) Reset() error {
	grid := make([][]CellKind, w.size)
	for i := range grid {
		grid[i] = make([]CellKind, w.size)
	}

	// Sample a uniform random subset of cells as obstacles.
	numObstacles := int(math.Round(float64(w.size*w.size) * w.density))
	obstacles := make([]sim.Position, 0, numObstacles)
	for _, idx := range w.rng.Perm(w.size * w.size)[:numObstacles] {
		pos := sim.Position{Row: idx / w.size, Col: idx % w.size}
		grid[pos.Row][pos.Col] = CellObstacle
		obstacles = append(obstacles, pos)
	}

	// The complement set of empty cells hosts the start and goal.
	empty := make([]sim.Position, 0, w.size*w.size-numObstacles)
	for row := 0; row < w.size; row++ {
		for col := 0; col < w.size; col++ {
			if grid[row][col] == CellEmpty {
				empty = append(empty, sim.Position{Row: row, Col: col})
			}
		}
	}
	if len(empty) < 2 {
		return ErrNotEnoughEmptyCells
	}

	startIdx := w.rng.Intn(len(empty))
	start := empty[startIdx]
	empty = append(empty[:startIdx], empty[startIdx+1:]...)

	// Prefer a goal at a minimum distance from the start so episodes
	// are non-trivial; fall back to any remaining cell.
	minDistance := minGoalDistance(w.size)
	far := make([]sim.Position, 0, len(empty))
	for _, pos := range empty {
		if sim.ManhattanDistance(start, pos) >= minDistance {
			far = append(far, pos)
		}
	}

	var goal sim.Position
	if len(far) > 0 {
		goal = far[w.rng.Intn(len(far))]
	} else {
		goal = empty[w.rng.Intn(len(empty))]
	}

	grid[start.Row][start.Col] = CellAgent
	grid[goal.Row][goal.Col] = CellGoal

	w.grid = grid
	w.obstacles = obstacles
	w.start = start
	w.goal = goal
	return nil
}

func minGoalDistance(size int) int {
	if d := size / 3; d > 3 {
		return d
	}
	return 3
}

// Size returns the side length of the grid.
func (w *World) Size() int {
	return w.size
}

// StartPosition returns the agent's episode start cell.
func (w *World) StartPosition() sim.Position {
	return w.start
}

// GoalPosition returns the goal cell.
func (w *World) GoalPosition() sim.Position {
	return w.goal
}

// Obstacles returns a copy of the obstacle positions.
func (w *World) Obstacles() []sim.Position {
	out := make([]sim.Position, len(w.obstacles))
	copy(out, w.obstacles)
	return out
}

// IsObstacle reports whether the cell holds an obstacle. Out-of-bounds
// cells are not obstacles; bounds violations are handled by the caller.
func (w *World) IsObstacle(pos sim.Position) bool {
	if pos.Row < 0 || pos.Row >= w.size || pos.Col < 0 || pos.Col >= w.size {
		return false
	}
	return w.grid[pos.Row][pos.Col] == CellObstacle
}

// Grid returns a copy of the grid contents.
func (w *World) Grid() [][]CellKind {
	out := make([][]CellKind, len(w.grid))
	for i, row := range w.grid {
		out[i] = make([]CellKind, len(row))
		copy(out[i], row)
	}
	return out
}

// ResetAgentMarker clears any agent overlay on the grid and re-marks
// the start cell, without touching the rest of the geometry.
func (w *World) ResetAgentMarker() {
	for row := range w.grid {
		for col := range w.grid[row] {
			if w.grid[row][col] == CellAgent {
				w.grid[row][col] = CellEmpty
			}
		}
	}
	// Never overwrite the goal marker.
	if w.start != w.goal {
		w.grid[w.start.Row][w.start.Col] = CellAgent
	}
}

var cellSymbols = map[CellKind]string{
	CellEmpty:    ".",
	CellObstacle: "#",
	CellAgent:    "A",
	CellGoal:     "G",
}

// String provides a textual representation of the grid world.
func (w *World) String() string {
	rows := make([]string, 0, w.size)
	for _, row := range w.grid {
		var b strings.Builder
		for _, cell := range row {
			b.WriteString(cellSymbols[cell])
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}
