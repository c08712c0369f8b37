package blocks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradesAndWidths(t *testing.T) {
	tr := buildTrack(segDef{S, 100, 0}, segDef{S, 100, 0}, segDef{L, 50, 100})
	tr.Segments[0].Gain, tr.Segments[0].Width = 2, 10
	tr.Segments[1].Gain, tr.Segments[1].Width = 4, 14
	tr.Segments[2].Gain, tr.Segments[2].Width = -1, 12
	l, err := Partition(tr, 1000)
	require.NoError(t, err)

	grades := l.Grades()
	assert.InDeltaSlice(t, []float64{0.03, -0.02}, grades, 1e-12)
	assert.InDeltaSlice(t, []float64{12, 12}, l.Widths(), 1e-12)
}

func TestGradesZeroLengthBlock(t *testing.T) {
	tr := buildTrack(segDef{S, 100, 0}, segDef{L, 0, 100}, segDef{S, 100, 0})
	tr.Segments[0].Gain = 2
	tr.Segments[1].Gain = 1
	l, err := Partition(tr, 1000)
	require.NoError(t, err)
	require.Equal(t, 3, l.Len())
	require.Equal(t, 0.0, l.Blocks[1].Length)

	grades := l.Grades()
	assert.InDeltaSlice(t, []float64{0.02, 0, 0}, grades, 1e-12)
	for _, g := range grades {
		assert.False(t, math.IsNaN(g) || math.IsInf(g, 0))
	}
}

func TestRotate(t *testing.T) {
	xs := []int{1, 2, 3, 4}
	assert.Equal(t, []int{4, 1, 2, 3}, Prev(xs))
	assert.Equal(t, []int{2, 3, 4, 1}, Next(xs))
	assert.Equal(t, xs, Rotate(xs, 8))
	assert.Empty(t, Prev([]int{}))
	assert.Equal(t, []int{1, 2, 3, 4}, xs)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 4, Wrap(-1, 5))
	assert.Equal(t, 0, Wrap(5, 5))
	assert.Equal(t, 3, Wrap(-7, 5))
}
