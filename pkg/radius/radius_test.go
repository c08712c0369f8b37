package radius

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/model"
)

type segDef struct {
	typ    model.SegmentType
	length float64
	radius float64
}

func layout(t *testing.T, maxLen float64, defs ...segDef) *blocks.Layout {
	t.Helper()
	tr := &model.Track{Name: "test"}
	end := 0.0
	for i, d := range defs {
		seg := model.Segment{Index: i, Type: d.typ, Length: d.length, Radius: d.radius, StartLength: end}
		end += d.length
		seg.EndLength = end
		tr.Segments = append(tr.Segments, seg)
	}
	l, err := blocks.Partition(tr, maxLen)
	require.NoError(t, err)
	return l
}

func repeat(n int, d segDef) []segDef {
	ret := make([]segDef, n)
	for i := range ret {
		ret[i] = d
	}
	return ret
}

func TestInverseRadiuses(t *testing.T) {
	l := layout(t, 1000,
		segDef{model.SegmentStraight, 100, 0},
		segDef{model.SegmentStraight, 100, 0},
		segDef{model.SegmentLeft, 10, 50},
		segDef{model.SegmentLeft, 10, 100},
		segDef{model.SegmentRight, 10, 0},
		segDef{model.SegmentRight, 10, 25},
	)
	inv := InverseRadiuses(l)
	require.Len(t, inv, 3)
	assert.Equal(t, 0.0, inv[0])
	assert.InDelta(t, (0.02+0.01)/2, inv[1], 1e-15)
	// a zero radius counts as 0 and lowers the mean
	assert.InDelta(t, 0.04/2, inv[2], 1e-15)
}

func TestWeightedMeans(t *testing.T) {
	inv := []float64{1, 0, 0, 0, 0, 0, 0}
	prev := PrevWeightedMeans(inv)
	next := NextWeightedMeans(inv)

	// block 1 has block 0 as 1st predecessor, block 6 has it as 1st successor
	assert.InDelta(t, 0.9/5, prev[1], 1e-15)
	assert.InDelta(t, 0.8/5, prev[2], 1e-15)
	assert.InDelta(t, 0.1/5, prev[5], 1e-15)
	assert.InDelta(t, 0.0, prev[6], 1e-15)
	assert.InDelta(t, 0.0, prev[0], 1e-15)
	assert.InDelta(t, 0.9/5, next[6], 1e-15)
	assert.InDelta(t, 0.5/5, next[4], 1e-15)
	assert.InDelta(t, 0.0, next[1], 1e-15)
}

func TestWeightedMeansWrapSmallTracks(t *testing.T) {
	// with two blocks the window visits each block several times
	got := PrevWeightedMeans([]float64{1, 2})
	// block 0: neighbors 1,0,1,0,1
	assert.InDelta(t, (0.9*2+0.8*1+0.5*2+0.2*1+0.1*2)/5, got[0], 1e-15)
}

func TestDecayedUniformRadius(t *testing.T) {
	const r = 80.0
	l := layout(t, 200, repeat(40, segDef{model.SegmentLeft, 25, r})...)
	for _, thr := range DefaultThresholds {
		prev, err := PrevSegsRads(l, thr)
		require.NoError(t, err)
		next, err := NextSegsRads(l, thr)
		require.NoError(t, err)
		for b := range prev {
			assert.InDelta(t, 1/r, prev[b], 1e-12, "prev thr=%v block=%d", thr, b)
			assert.InDelta(t, 1/r, next[b], 1e-12, "next thr=%v block=%d", thr, b)
		}
	}
}

func TestDecayedUniformRadiusUnevenSegments(t *testing.T) {
	const r = 120.0
	defs := []segDef{}
	for _, length := range []float64{13, 70, 5, 120, 33, 59, 200, 17, 91, 42, 150, 8, 65, 130} {
		defs = append(defs, segDef{model.SegmentRight, length, r})
	}
	l := layout(t, 150, defs...)
	for _, thr := range []float64{400, 100, 7} {
		prev, err := PrevSegsRads(l, thr)
		require.NoError(t, err)
		next, err := NextSegsRads(l, thr)
		require.NoError(t, err)
		for b := range prev {
			assert.InDelta(t, 1/r, prev[b], 1e-12)
			assert.InDelta(t, 1/r, next[b], 1e-12)
		}
	}
}

func TestDecayedSingleBend(t *testing.T) {
	l := layout(t, 1000,
		segDef{model.SegmentStraight, 500, 0},
		segDef{model.SegmentLeft, 10, 100},
		segDef{model.SegmentStraight, 490, 0},
	)
	const thr = 100.0
	alpha := math.Pow(10, -2/thr)
	norm := math.Pow(alpha, thr) - 1

	prev, err := PrevSegsRads(l, thr)
	require.NoError(t, err)
	// the bend ends exactly at the start of block 2
	assert.InDelta(t, 0.01*(math.Pow(alpha, 10)-1)/norm, prev[2], 1e-15)
	assert.Equal(t, 0.0, prev[0])
	// block 1 starts before the bend ends, the bend is a full lap away
	assert.Equal(t, 0.0, prev[1])

	next, err := NextSegsRads(l, thr)
	require.NoError(t, err)
	assert.InDelta(t, 0.01*(math.Pow(alpha, 10)-1)/norm, next[0], 1e-15)
	assert.Equal(t, 0.0, next[2])
}

func TestDecayedStraightTrack(t *testing.T) {
	l := layout(t, 200, repeat(10, segDef{model.SegmentStraight, 50, 0})...)
	all, err := DecayedAll(l, DefaultThresholds)
	require.NoError(t, err)
	require.Len(t, all, len(DefaultThresholds))
	for _, d := range all {
		for b := range d.Prev {
			assert.Equal(t, 0.0, d.Prev[b])
			assert.Equal(t, 0.0, d.Next[b])
		}
	}
}

func TestKernelRejectsNonPositive(t *testing.T) {
	_, err := NewKernel(0)
	assert.Error(t, err)
	l := layout(t, 200, segDef{model.SegmentStraight, 50, 0})
	_, err = PrevSegsRads(l, -1)
	assert.Error(t, err)
}
