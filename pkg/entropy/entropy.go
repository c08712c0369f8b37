// Package entropy measures how spread out the track and driving values of a
// run are.
package entropy

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
)

const (
	DefaultBins = 30
	// MinSamples is the least number of finite values for a result.
	MinSamples = 10
)

// Metrics holds the entropies of a run. A nil value means too few samples.
type Metrics struct {
	Speed        *float64 `json:"speed"`
	Curvature    *float64 `json:"curvature"`
	Acceleration *float64 `json:"acceleration"`
	Braking      *float64 `json:"braking"`
}

// Shannon returns the entropy (natural log) of the histogram of values with
// bins equal width bins over the value range. ok is false if there are fewer
// than MinSamples finite values.
func Shannon(values []float64, bins int) (e float64, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) < MinSamples || bins < 1 {
		return 0, false
	}
	slices.Sort(finite)
	lo, hi := finite[0], finite[len(finite)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// the last bin includes the maximum
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, finite, nil)
	floats.Scale(1/float64(len(finite)), counts)
	return stat.Entropy(counts), true
}

// Compute gathers the values of all segments of t.
func Compute(t *model.Track, bins int) Metrics {
	l := log.Default().Named("entropy")
	speeds := []float64{}
	accels := []float64{}
	brakes := []float64{}
	curvatures := []float64{}
	for i := range t.Segments {
		seg := &t.Segments[i]
		speeds = append(speeds, seg.Dynamics[model.FieldSpeed]...)
		accels = append(accels, seg.Dynamics[model.FieldAccel]...)
		brakes = append(brakes, seg.Dynamics[model.FieldBrake]...)
		if seg.Radius != 0 {
			curvatures = append(curvatures, 1/seg.Radius)
		}
	}
	value := func(name string, x []float64) *float64 {
		e, ok := Shannon(x, bins)
		if !ok {
			l.Warn("insufficient samples for entropy",
				log.String("metric", name), log.Int("samples", len(x)))
			return nil
		}
		l.Debug("entropy computed", log.String("metric", name), log.Float64("entropy", e))
		return &e
	}
	return Metrics{
		Speed:        value("speed", speeds),
		Curvature:    value("curvature", curvatures),
		Acceleration: value("acceleration", accels),
		Braking:      value("braking", brakes),
	}
}
