package qstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

// encodeState renders a state key as "row,col,dir".
func encodeState(state sim.State) string {
	return fmt.Sprintf("%d,%d,%d", state.Pos.Row, state.Pos.Col, int(state.Dir))
}

func decodeState(field string) (sim.State, error) {
	parts := strings.Split(field, ",")
	if len(parts) != 3 {
		return sim.State{}, fmt.Errorf("malformed state key %q", field)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return sim.State{}, fmt.Errorf("malformed state key %q: %w", field, err)
		}
		nums[i] = n
	}

	return sim.State{
		Pos: sim.Position{Row: nums[0], Col: nums[1]},
		Dir: sim.Direction(nums[2]),
	}, nil
}

// encodeVector renders an action-value vector as a comma-separated
// list.
func encodeVector(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func decodeVector(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != sim.ActionCount {
		return nil, fmt.Errorf("malformed action-value vector %q", value)
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed action-value vector %q: %w", value, err)
		}
		values[i] = v
	}
	return values, nil
}
