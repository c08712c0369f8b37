// Package stats holds the descriptive statistics shared by the analyses.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Moments describes a sample by mean, population variance and skewness.
type Moments struct {
	Mean float64 `json:"mean"`
	Var  float64 `json:"var"`
	Skew float64 `json:"skew"`
}

// Describe returns the moments of x. An empty sample yields zeros, a sample
// without spread has skewness 0.
func Describe(x []float64) Moments {
	if len(x) == 0 {
		return Moments{}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	m := Moments{Mean: mean, Var: std * std}
	if m.Var > 0 {
		m.Skew = stat.Moment(3, x, nil) / math.Pow(m.Var, 1.5)
	}
	return m
}

// Percentile returns the p-th percentile (0..100) of x using linear
// interpolation between closest ranks. x is not modified.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	return percentileSorted(sorted, p)
}

// Quartiles returns the 25th, 50th and 75th percentile of x.
func Quartiles(x []float64) (q1, q2, q3 float64) {
	if len(x) == 0 {
		return 0, 0, 0
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	return percentileSorted(sorted, 25), percentileSorted(sorted, 50), percentileSorted(sorted, 75)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
