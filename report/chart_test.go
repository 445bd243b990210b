package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingCurve(t *testing.T) {
	t.Run("renders both curves", func(t *testing.T) {
		var buf bytes.Buffer

		err := TrainingCurve(&buf, []float64{-2.5, 1.0, 8.2}, []int{120, 40, 19})
		require.NoError(t, err)

		html := buf.String()
		assert.Contains(t, html, "Episode rewards")
		assert.Contains(t, html, "Episode steps")
	})

	t.Run("fails without episodes", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, TrainingCurve(&buf, nil, nil), ErrNoData)
	})
}
