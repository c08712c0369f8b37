// Package radius derives curvature features of blocks.
package radius

import (
	"fmt"
	"math"

	"github.com/racingminer/trackblocks/pkg/blocks"
)

// NeighborWeights weight the 1st..5th neighbor block in the weighted means.
var NeighborWeights = []float64{0.9, 0.8, 0.5, 0.2, 0.1}

// DefaultThresholds are the window sizes of the decayed estimators in meters.
var DefaultThresholds = []float64{400, 200, 100, 50}

// InverseRadiuses returns the mean of 1/radius over the segments of each
// block. Segments with radius 0 contribute 0 and still count.
func InverseRadiuses(l *blocks.Layout) []float64 {
	ret := make([]float64, l.Len())
	for b := range l.Blocks {
		segs := l.Segments(b)
		sum := 0.0
		for i := range segs {
			sum += segs[i].InverseRadius()
		}
		ret[b] = sum / float64(len(segs))
	}
	return ret
}

// PrevWeightedMeans combines the values of the five preceding blocks using
// NeighborWeights. The result is divided by the number of weights.
func PrevWeightedMeans(inv []float64) []float64 {
	return weightedMeans(inv, -1)
}

// NextWeightedMeans is PrevWeightedMeans for the following blocks.
func NextWeightedMeans(inv []float64) []float64 {
	return weightedMeans(inv, 1)
}

func weightedMeans(inv []float64, dir int) []float64 {
	n := len(inv)
	ret := make([]float64, n)
	for i := range inv {
		sum := 0.0
		for k, w := range NeighborWeights {
			sum += w * inv[blocks.Wrap(i+dir*(k+1), n)]
		}
		ret[i] = sum / float64(len(NeighborWeights))
	}
	return ret
}

// Kernel is the exponential distance kernel alpha^d on [0,thr], normalized
// to integrate to 1. alpha is chosen so that the weight at thr is 1/100.
type Kernel struct {
	thr   float64
	alpha float64
	norm  float64
}

func NewKernel(thr float64) (Kernel, error) {
	if thr <= 0 {
		return Kernel{}, fmt.Errorf("threshold must be positive, got %v", thr)
	}
	alpha := math.Pow(10, -2/thr)
	return Kernel{thr: thr, alpha: alpha, norm: math.Pow(alpha, thr) - 1}, nil
}

func (k Kernel) Threshold() float64 { return k.thr }

// weight integrates the kernel over a segment that starts dist meters away
// from the reference point. It returns false if the segment is out of range.
func (k Kernel) weight(dist, length float64) (float64, bool) {
	if dist >= k.thr {
		return 0, false
	}
	a := dist
	b := math.Min(dist+length, k.thr)
	return (math.Pow(k.alpha, b) - math.Pow(k.alpha, a)) / k.norm, true
}

// PrevSegsRads estimates the curvature right behind the start of each block.
// Every segment ending within thr meters before the block start contributes
// its inverse radius, weighted by the kernel over the part of the segment
// inside the window. Distances wrap at the track seam.
func PrevSegsRads(l *blocks.Layout, thr float64) ([]float64, error) {
	k, err := NewKernel(thr)
	if err != nil {
		return nil, err
	}
	total := l.TrackLength()
	starts := l.StartLengths()
	ret := make([]float64, len(starts))
	for i := range l.Track.Segments {
		seg := &l.Track.Segments[i]
		inv := seg.InverseRadius()
		if inv == 0 {
			continue
		}
		for b, start := range starts {
			if w, ok := k.weight(seamDist(start-seg.EndLength, total), seg.Length); ok {
				ret[b] += inv * w
			}
		}
	}
	return ret, nil
}

// NextSegsRads estimates the curvature right after the end of each block.
func NextSegsRads(l *blocks.Layout, thr float64) ([]float64, error) {
	k, err := NewKernel(thr)
	if err != nil {
		return nil, err
	}
	total := l.TrackLength()
	ends := l.EndLengths()
	ret := make([]float64, len(ends))
	for i := range l.Track.Segments {
		seg := &l.Track.Segments[i]
		inv := seg.InverseRadius()
		if inv == 0 {
			continue
		}
		for b, end := range ends {
			if w, ok := k.weight(seamDist(seg.StartLength-end, total), seg.Length); ok {
				ret[b] += inv * w
			}
		}
	}
	return ret, nil
}

func seamDist(d, total float64) float64 {
	if d < 0 {
		return d + total
	}
	return d
}

// Decayed holds the prev/next decayed estimates for one threshold.
type Decayed struct {
	Threshold float64
	Prev      []float64
	Next      []float64
}

// DecayedAll computes the estimators for every threshold in order.
func DecayedAll(l *blocks.Layout, thresholds []float64) ([]Decayed, error) {
	ret := make([]Decayed, 0, len(thresholds))
	for _, thr := range thresholds {
		prev, err := PrevSegsRads(l, thr)
		if err != nil {
			return nil, err
		}
		next, err := NextSegsRads(l, thr)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Decayed{Threshold: thr, Prev: prev, Next: next})
	}
	return ret, nil
}

// Apply stores the block inverse radiuses in the block metrics.
func Apply(l *blocks.Layout, inv []float64) {
	for b := range l.Blocks {
		l.Blocks[b].Metrics.InverseRadius = inv[b]
	}
}
