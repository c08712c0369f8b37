//nolint:funlen // table tests
package blocks

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/model"
)

type segDef struct {
	typ    model.SegmentType
	length float64
	radius float64
}

func buildTrack(defs ...segDef) *model.Track {
	t := &model.Track{Name: "test"}
	end := 0.0
	for i, d := range defs {
		seg := model.Segment{
			Index: i, Type: d.typ, RawType: d.typ, Length: d.length, Radius: d.radius,
			StartLength: end,
		}
		end += d.length
		seg.EndLength = end
		t.Segments = append(t.Segments, seg)
	}
	t.Length = end
	return t
}

var (
	S = model.SegmentStraight
	L = model.SegmentLeft
	R = model.SegmentRight
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name        string
		defs        []segDef
		max         float64
		wantBlocks  []int
		wantLengths []float64
		wantTypes   []model.SegmentType
	}{
		{
			name:        "straight only below cap",
			defs:        []segDef{{S, 50, 0}, {S, 50, 0}, {S, 50, 0}},
			max:         200,
			wantBlocks:  []int{0, 0, 0},
			wantLengths: []float64{150},
			wantTypes:   []model.SegmentType{S},
		},
		{
			name:        "type change only",
			defs:        []segDef{{S, 100, 0}, {L, 50, 100}, {S, 100, 0}},
			max:         1000,
			wantBlocks:  []int{0, 1, 2},
			wantLengths: []float64{100, 50, 100},
			wantTypes:   []model.SegmentType{S, L, S},
		},
		{
			name:        "length cap",
			defs:        []segDef{{S, 80, 0}, {S, 80, 0}, {S, 80, 0}, {S, 40, 0}},
			max:         200,
			wantBlocks:  []int{0, 0, 1, 1},
			wantLengths: []float64{160, 120},
			wantTypes:   []model.SegmentType{S, S},
		},
		{
			name:        "exactly at cap stays",
			defs:        []segDef{{R, 100, 50}, {R, 100, 50}, {R, 1, 50}},
			max:         200,
			wantBlocks:  []int{0, 0, 1},
			wantLengths: []float64{200, 1},
			wantTypes:   []model.SegmentType{R, R},
		},
		{
			name:        "single segment longer than cap",
			defs:        []segDef{{S, 500, 0}, {S, 10, 0}},
			max:         200,
			wantBlocks:  []int{0, 1},
			wantLengths: []float64{500, 10},
			wantTypes:   []model.SegmentType{S, S},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := buildTrack(tt.defs...)
			l, err := Partition(tr, tt.max)
			require.NoError(t, err)

			got := make([]int, len(tr.Segments))
			for i := range tr.Segments {
				got[i] = tr.Segments[i].Block
			}
			if diff := cmp.Diff(tt.wantBlocks, got); diff != "" {
				t.Errorf("block index mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantLengths, l.Lengths())
			assert.Equal(t, tt.wantTypes, l.Types())
		})
	}
}

func TestPartitionRejectsNonPositiveCap(t *testing.T) {
	_, err := Partition(buildTrack(segDef{S, 10, 0}), 0)
	assert.Error(t, err)
}

func randomTrack(r *rand.Rand, n int) *model.Track {
	types := []model.SegmentType{S, L, R}
	defs := make([]segDef, n)
	for i := range defs {
		typ := types[r.IntN(len(types))]
		radius := 0.0
		if typ != S {
			radius = 20 + r.Float64()*500
		}
		defs[i] = segDef{typ, 1 + r.Float64()*60, radius}
	}
	return buildTrack(defs...)
}

func TestPartitionProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		tr := randomTrack(r, 5+r.IntN(200))
		maxLen := 20 + r.Float64()*300
		l, err := Partition(tr, maxLen)
		require.NoError(t, err)

		// lengths add up to the analyzed track length
		sum := 0.0
		for _, v := range l.Lengths() {
			sum += v
		}
		assert.InDelta(t, tr.AnalyzedLength(), sum, 1e-6)
		assert.Equal(t, tr.AnalyzedLength(), l.TrackLength())

		// contiguous, zero based, non decreasing along segment order
		assert.Equal(t, 0, tr.Segments[0].Block)
		for i := 1; i < len(tr.Segments); i++ {
			d := tr.Segments[i].Block - tr.Segments[i-1].Block
			assert.True(t, d == 0 || d == 1, "segment %d jumps by %d", i, d)
		}
		assert.Equal(t, l.Len()-1, tr.Segments[len(tr.Segments)-1].Block)

		for b := range l.Blocks {
			segs := l.Segments(b)
			for i := range segs {
				assert.Equal(t, b, segs[i].Block)
				assert.Equal(t, l.Blocks[b].Type, segs[i].Type)
				if i > 0 {
					assert.Equal(t, segs[i-1].Index+1, segs[i].Index)
				}
			}
			if len(segs) > 1 {
				assert.LessOrEqual(t, l.Blocks[b].Length, maxLen+1e-9)
			}
		}
	}
}

func TestLayoutArrays(t *testing.T) {
	tr := buildTrack(segDef{S, 100, 0}, segDef{L, 50, 100}, segDef{L, 50, 100}, segDef{S, 200, 0})
	l, err := Partition(tr, 1000)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 100, 200}, l.StartLengths())
	assert.Equal(t, []float64{100, 200, 400}, l.EndLengths())
	assert.Equal(t, []float64{0, 0.25, 0.5}, l.LapPositions())
	for _, p := range l.LapPositions() {
		assert.True(t, p >= 0 && p < 1)
	}
}

func TestBlockAt(t *testing.T) {
	tr := buildTrack(segDef{S, 100, 0}, segDef{L, 50, 100}, segDef{S, 100, 0})
	l, err := Partition(tr, 1000)
	require.NoError(t, err)

	tests := []struct {
		name string
		dist float64
		want int
	}{
		{"start", 0, 0},
		{"inside first", 42, 0},
		{"boundary goes to earlier block", 100, 0},
		{"just after boundary", 100.0001, 1},
		{"end of second", 150, 1},
		{"end of lap", 250, 2},
		{"beyond", 250.5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.BlockAt(tt.dist))
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := buildTrack(segDef{S, 100, 0}, segDef{L, 50, 100})
	l, err := Partition(tr, 1000)
	require.NoError(t, err)

	c := l.Clone()
	c.Track.Segments[0].Overtakes = 3
	c.Blocks[0].Metrics.Overtakes = 3
	assert.Equal(t, 0, l.Track.Segments[0].Overtakes)
	assert.Equal(t, 0, l.Blocks[0].Metrics.Overtakes)
	assert.False(t, math.IsNaN(c.TrackLength()))
}
