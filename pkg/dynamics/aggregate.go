package dynamics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/stats"
)

// Attributor assigns samples to segments with a forward only pointer.
// A sample belongs to the current segment as long as its distance does not
// exceed the segment end. Otherwise the pointer moves on, segments without
// samples keep empty lists. The last segment takes everything that remains.
// A sample of another lap or driver starts a new pass at segment 0.
type Attributor struct {
	track  *model.Track
	cur    int
	buf    model.FieldSamples
	count  int
	lap    int
	driver string
}

func NewAttributor(t *model.Track) *Attributor {
	return &Attributor{track: t}
}

// Add attributes one sample. Samples must be passed in emission order.
func (a *Attributor) Add(s *model.DynamicsSample) {
	if a.count > 0 && (s.Lap != a.lap || s.Driver != a.driver) {
		a.flush()
		a.cur = 0
	}
	a.lap, a.driver = s.Lap, s.Driver
	last := len(a.track.Segments) - 1
	for a.cur < last && s.Distance > a.track.Segments[a.cur].EndLength {
		a.flush()
		a.cur++
	}
	a.buf.Add(s)
	a.count++
}

// Close hands the pending samples to the current segment.
func (a *Attributor) Close() {
	a.flush()
}

// Count is the number of attributed samples.
func (a *Attributor) Count() int { return a.count }

func (a *Attributor) flush() {
	if a.buf.Len() == 0 || len(a.track.Segments) == 0 {
		return
	}
	seg := &a.track.Segments[a.cur]
	for _, f := range model.DynamicsFields {
		seg.Dynamics[f] = append(seg.Dynamics[f], a.buf[f]...)
	}
	a.buf = model.FieldSamples{}
}

// Attribute adds all samples to the segments of t.
func Attribute(t *model.Track, samples []model.DynamicsSample) int {
	a := NewAttributor(t)
	for i := range samples {
		a.Add(&samples[i])
	}
	a.Close()
	return a.Count()
}

// Describe summarizes samples. No samples yield the zero Distribution.
func Describe(x []float64) model.Distribution {
	if len(x) == 0 {
		return model.Distribution{}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	q1, q2, q3 := stats.Quartiles(x)
	return model.Distribution{Mean: mean, Std: std, Q1: q1, Q2: q2, Q3: q3}
}

// Aggregate computes the distribution of field f for every block by pooling
// the samples of all member segments.
func Aggregate(l *blocks.Layout, f model.DynamicsField) []model.Distribution {
	ret := make([]model.Distribution, l.Len())
	for b := range l.Blocks {
		segs := l.Segments(b)
		pooled := []float64{}
		for i := range segs {
			pooled = append(pooled, segs[i].Dynamics[f]...)
		}
		ret[b] = Describe(pooled)
	}
	return ret
}

// AggregateAll runs Aggregate for every field and stores the results in the
// block metrics.
func AggregateAll(l *blocks.Layout) {
	for _, f := range model.DynamicsFields {
		for b, d := range Aggregate(l, f) {
			l.Blocks[b].Metrics.Dynamics[f] = d
		}
	}
}
