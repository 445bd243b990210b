package qlearn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

func TestTableVector(t *testing.T) {
	t.Run("first access inserts an all-zero vector", func(t *testing.T) {
		table := NewTable()
		state := sim.State{Pos: sim.Position{Row: 1, Col: 2}, Dir: sim.East}

		assert.Equal(t, 0, table.Len())
		assert.Equal(t, make([]float64, sim.ActionCount), table.Vector(state))
		assert.Equal(t, 1, table.Len())
	})

	t.Run("returned vector is the stored one", func(t *testing.T) {
		table := NewTable()
		state := sim.State{Pos: sim.Position{Row: 0, Col: 0}, Dir: sim.North}

		table.Vector(state)[2] = 1.5
		assert.Equal(t, 1.5, table.Vector(state)[2])
	})
}

func TestTableArgMax(t *testing.T) {
	state := sim.State{Pos: sim.Position{Row: 3, Col: 3}, Dir: sim.South}

	t.Run("untouched state yields the first action", func(t *testing.T) {
		table := NewTable()
		assert.Equal(t, sim.Forward, table.ArgMax(state))
	})

	t.Run("ties break toward the lowest action index", func(t *testing.T) {
		table := NewTable()
		v := table.Vector(state)
		v[1], v[3] = 5.0, 5.0

		assert.Equal(t, sim.TurnRight, table.ArgMax(state))
		assert.Equal(t, 5.0, table.Max(state))
	})

	t.Run("single maximum wins", func(t *testing.T) {
		table := NewTable()
		v := table.Vector(state)
		v[0], v[1], v[2], v[3] = -0.5, 0.2, 2.5, 1.0

		assert.Equal(t, sim.TurnLeft, table.ArgMax(state))
		assert.Equal(t, 2.5, table.Max(state))
	})
}

func TestTableSnapshot(t *testing.T) {
	state := sim.State{Pos: sim.Position{Row: 2, Col: 4}, Dir: sim.West}

	t.Run("snapshot is decoupled from later writes", func(t *testing.T) {
		table := NewTable()
		table.Vector(state)[0] = 1.0

		snapshot := table.Snapshot()
		table.Vector(state)[0] = 9.0

		assert.Equal(t, 1.0, snapshot[state][0])
	})

	t.Run("restore replaces the contents", func(t *testing.T) {
		table := NewTable()
		table.Vector(sim.State{Dir: sim.North})[1] = 7.0

		table.Restore(map[sim.State][]float64{state: {0, 0, 3.0, 0}})

		assert.Equal(t, 1, table.Len())
		assert.Equal(t, 3.0, table.Vector(state)[2])
	})

	t.Run("restore normalizes vector lengths", func(t *testing.T) {
		table := NewTable()
		table.Restore(map[sim.State][]float64{
			state: {1.0, 2.0},
		})

		assert.Equal(t, []float64{1.0, 2.0, 0, 0}, table.Vector(state))
	})
}
