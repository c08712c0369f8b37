package entropy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/model"
)

func TestShannon(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		bins   int
		want   float64
		wantOk bool
	}{
		{"too few", []float64{1, 2, 3}, 30, 0, false},
		{"constant", []float64{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, 30, 0, true},
		{"two halves", []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, 2, math.Log(2), true},
		{"uniform over bins", []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 10, math.Log(10), true},
		{"non finite dropped", []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, math.NaN(), math.Inf(1)}, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Shannon(tt.values, tt.bins)
			require.Equal(t, tt.wantOk, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCompute(t *testing.T) {
	tr := &model.Track{}
	for i := range 12 {
		seg := model.Segment{Index: i, Radius: float64(50 + 10*i)}
		seg.Dynamics.Add(&model.DynamicsSample{Speed: float64(i), Accel: 1})
		tr.Segments = append(tr.Segments, seg)
	}
	m := Compute(tr, DefaultBins)
	require.NotNil(t, m.Speed)
	require.NotNil(t, m.Curvature)
	require.NotNil(t, m.Acceleration)
	require.NotNil(t, m.Braking)
	assert.Greater(t, *m.Speed, 0.0)
	assert.InDelta(t, 0, *m.Acceleration, 1e-12)

	m = Compute(&model.Track{Segments: []model.Segment{{Radius: 0}}}, DefaultBins)
	assert.Nil(t, m.Speed)
	assert.Nil(t, m.Curvature)
}
