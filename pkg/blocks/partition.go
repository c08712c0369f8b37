// Package blocks groups track segments into blocks of one effective type and
// bounded length.
package blocks

import (
	"fmt"

	"github.com/racingminer/trackblocks/pkg/model"
)

// DefaultMaxBlockLength is the block length cap used by the analysis tools.
const DefaultMaxBlockLength = 200.0

// Layout is the block structure of a track for one max block length.
// The block boundaries never change after Partition, only the per-run data
// (overtakes, dynamics) of the segments and block metrics does.
type Layout struct {
	Track          *model.Track
	MaxBlockLength float64
	Blocks         []model.Block
}

// Partition assigns every segment of t to a block and returns the layout.
// A segment opens a new block if its type differs from the previous one or
// if it would push the running block length above maxBlockLength.
// The first segment always opens block 0.
func Partition(t *model.Track, maxBlockLength float64) (*Layout, error) {
	if maxBlockLength <= 0 {
		return nil, fmt.Errorf("max block length must be positive, got %v", maxBlockLength)
	}
	l := &Layout{Track: t, MaxBlockLength: maxBlockLength}
	block := -1
	blockLength := 0.0
	prevType := model.SegmentNone
	first := true
	for i := range t.Segments {
		seg := &t.Segments[i]
		if first || blockLength+seg.Length > maxBlockLength || seg.Type != prevType {
			block++
			blockLength = 0
			l.Blocks = append(l.Blocks, model.Block{
				Index:       block,
				First:       i,
				StartLength: seg.StartLength,
				Type:        seg.Type,
			})
			first = false
		}
		seg.Block = block
		blockLength += seg.Length
		prevType = seg.Type

		b := &l.Blocks[block]
		b.Last = i
		b.EndLength = seg.EndLength
		b.Length += seg.Length
	}
	return l, nil
}

// Len returns the number of blocks.
func (l *Layout) Len() int { return len(l.Blocks) }

// Segments returns the member segments of block b in track order.
func (l *Layout) Segments(b int) []model.Segment {
	blk := &l.Blocks[b]
	return l.Track.Segments[blk.First : blk.Last+1]
}

// TrackLength is the end length of the last block.
func (l *Layout) TrackLength() float64 {
	if len(l.Blocks) == 0 {
		return 0
	}
	return l.Blocks[len(l.Blocks)-1].EndLength
}

func (l *Layout) StartLengths() []float64 {
	return l.collect(func(b *model.Block) float64 { return b.StartLength })
}

func (l *Layout) EndLengths() []float64 {
	return l.collect(func(b *model.Block) float64 { return b.EndLength })
}

func (l *Layout) Lengths() []float64 {
	return l.collect(func(b *model.Block) float64 { return b.Length })
}

func (l *Layout) Types() []model.SegmentType {
	ret := make([]model.SegmentType, len(l.Blocks))
	for i := range l.Blocks {
		ret[i] = l.Blocks[i].Type
	}
	return ret
}

// LapPositions returns the start of each block as fraction of the track length.
func (l *Layout) LapPositions() []float64 {
	total := l.TrackLength()
	return l.collect(func(b *model.Block) float64 {
		if total == 0 {
			return 0
		}
		return b.StartLength / total
	})
}

// BlockAt returns the index of the block whose end length is the first to
// reach or exceed dist, or -1 if dist lies beyond the track.
func (l *Layout) BlockAt(dist float64) int {
	for i := range l.Blocks {
		if l.Blocks[i].EndLength >= dist {
			return i
		}
	}
	return -1
}

// Clone returns a layout on a deep copy of the track.
func (l *Layout) Clone() *Layout {
	return &Layout{
		Track:          l.Track.Clone(),
		MaxBlockLength: l.MaxBlockLength,
		Blocks:         append([]model.Block(nil), l.Blocks...),
	}
}

func (l *Layout) collect(fn func(b *model.Block) float64) []float64 {
	ret := make([]float64, len(l.Blocks))
	for i := range l.Blocks {
		ret[i] = fn(&l.Blocks[i])
	}
	return ret
}
