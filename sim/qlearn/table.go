package qlearn

import (
	"gonum.org/v1/gonum/floats"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// Table maps states to action-value vectors, one estimate per action,
// indexed by the action encoding. Entries are created lazily: the first
// access to a state inserts an all-zero vector, so unvisited states
// read as zero without pre-population. The get-or-create behavior is
// part of the contract, mirroring how every lookup during learning also
// registers the state as visited.
type Table struct {
	entries map[sim.State][]float64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[sim.State][]float64),
	}
}

// Vector returns the mutable action-value vector for the state,
// inserting an all-zero vector on first access.
func (t *Table) Vector(state sim.State) []float64 {
	v, ok := t.entries[state]
	if !ok {
		v = make([]float64, sim.ActionCount)
		t.entries[state] = v
	}
	return v
}

// Max returns the highest action value stored for the state.
func (t *Table) Max(state sim.State) float64 {
	return floats.Max(t.Vector(state))
}

// ArgMax returns the action with the highest stored value for the
// state. Ties break toward the lowest action index.
func (t *Table) ArgMax(state sim.State) sim.Action {
	return sim.Action(floats.MaxIdx(t.Vector(state)))
}

// Len returns the number of states with an entry.
func (t *Table) Len() int {
	return len(t.entries)
}

// Snapshot returns a deep copy of the table contents.
func (t *Table) Snapshot() map[sim.State][]float64 {
	out := make(map[sim.State][]float64, len(t.entries))
	for state, v := range t.entries {
		values := make([]float64, len(v))
		copy(values, v)
		out[state] = values
	}
	return out
}

// Restore replaces the table contents with a deep copy of the given
// snapshot. Vectors of the wrong length are normalized to the action
// count, truncating or zero-padding as needed.
func (t *Table) Restore(snapshot map[sim.State][]float64) {
	entries := make(map[sim.State][]float64, len(snapshot))
	for state, v := range snapshot {
		values := make([]float64, sim.ActionCount)
		copy(values, v)
		entries[state] = values
	}
	t.entries = entries
}
