package blocks

import "github.com/racingminer/trackblocks/pkg/model"

// Grades returns the elevation gain per meter of each block. A block of
// zero length has grade 0.
func (l *Layout) Grades() []float64 {
	ret := make([]float64, l.Len())
	for b := range l.Blocks {
		if l.Blocks[b].Length == 0 {
			continue
		}
		gain := 0.0
		for _, seg := range l.Segments(b) {
			gain += seg.Gain
		}
		ret[b] = gain / l.Blocks[b].Length
	}
	return ret
}

// Widths returns the length weighted mean segment width of each block.
func (l *Layout) Widths() []float64 {
	return l.WeightedMean(func(s *model.Segment) float64 { return s.Width })
}

// WeightedMean averages a segment value per block, weighted by segment length.
func (l *Layout) WeightedMean(fn func(s *model.Segment) float64) []float64 {
	ret := make([]float64, l.Len())
	for b := range l.Blocks {
		sum, norm := 0.0, 0.0
		segs := l.Segments(b)
		for i := range segs {
			sum += fn(&segs[i]) * segs[i].Length
			norm += segs[i].Length
		}
		if norm != 0 {
			ret[b] = sum / norm
		}
	}
	return ret
}

// Sum adds up a segment value per block.
func (l *Layout) Sum(fn func(s *model.Segment) float64) []float64 {
	ret := make([]float64, l.Len())
	for b := range l.Blocks {
		segs := l.Segments(b)
		for i := range segs {
			ret[b] += fn(&segs[i])
		}
	}
	return ret
}

// Prev returns xs shifted so that index i holds the value of block i-1.
// Block 0 gets the value of the last block.
func Prev[T any](xs []T) []T {
	return Rotate(xs, -1)
}

// Next returns xs shifted so that index i holds the value of block i+1.
func Next[T any](xs []T) []T {
	return Rotate(xs, 1)
}

// Rotate returns a slice whose element i is xs[(i+offset) mod n].
func Rotate[T any](xs []T, offset int) []T {
	n := len(xs)
	ret := make([]T, n)
	for i := range xs {
		ret[i] = xs[Wrap(i+offset, n)]
	}
	return ret
}

// Wrap maps i into [0,n).
func Wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
