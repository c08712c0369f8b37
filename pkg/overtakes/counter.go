package overtakes

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/model"
)

// Tally holds the overtake counts of one or more race logs on one layout.
type Tally struct {
	Track          string
	MaxBlockLength float64
	Segments       []int
	Blocks         []int
}

// Total returns the number of counted overtakes.
func (t *Tally) Total() int {
	return lo.Sum(t.Segments)
}

type Counter struct {
	l *log.Logger
}

func NewCounter() *Counter {
	return &Counter{l: log.Default().Named("overtakes")}
}

// SegmentAt returns the first segment whose end length reaches or exceeds
// dist, or -1 if dist lies beyond the last segment.
func SegmentAt(t *model.Track, dist float64) int {
	for i := range t.Segments {
		if t.Segments[i].EndLength >= dist {
			return i
		}
	}
	return -1
}

// Count adds the qualifying events to the segment counters of the layout
// track and returns the number of counted events. Events beyond the track
// end are logged and skipped.
func (c *Counter) Count(l *blocks.Layout, events []model.OvertakeEvent) int {
	counted := 0
	for i := range events {
		ev := &events[i]
		if !ev.Qualifies() {
			continue
		}
		seg := SegmentAt(l.Track, ev.Distance)
		if seg < 0 {
			c.l.Warn("overtake beyond track end",
				log.Float64("distance", ev.Distance),
				log.Float64("trackLength", l.Track.AnalyzedLength()),
				log.String("overtaker", ev.Overtaker))
			continue
		}
		l.Track.Segments[seg].Overtakes++
		counted++
	}
	return counted
}

// BlockCounts sums the segment counters per block and stores them in the
// block metrics.
func BlockCounts(l *blocks.Layout) []int {
	ret := make([]int, l.Len())
	for b := range l.Blocks {
		for _, seg := range l.Segments(b) {
			ret[b] += seg.Overtakes
		}
		l.Blocks[b].Metrics.Overtakes = ret[b]
	}
	return ret
}

// TallyOf captures the current counters of a layout.
func TallyOf(l *blocks.Layout) *Tally {
	t := &Tally{
		Track:          l.Track.Name,
		MaxBlockLength: l.MaxBlockLength,
		Segments:       make([]int, len(l.Track.Segments)),
	}
	for i := range l.Track.Segments {
		t.Segments[i] = l.Track.Segments[i].Overtakes
	}
	t.Blocks = BlockCounts(l)
	return t
}

// Apply writes the tally into the segment counters and block metrics of l.
func Apply(l *blocks.Layout, t *Tally) error {
	if err := compatible(TallyOf(l), t); err != nil {
		return err
	}
	for i := range l.Track.Segments {
		l.Track.Segments[i].Overtakes = t.Segments[i]
	}
	BlockCounts(l)
	return nil
}

// Merge adds two tallies of the same track and layout. It refuses to merge
// tallies whose segment or block structure differs.
func Merge(a, b *Tally) (*Tally, error) {
	if err := compatible(a, b); err != nil {
		return nil, err
	}
	ret := &Tally{
		Track:          a.Track,
		MaxBlockLength: a.MaxBlockLength,
		Segments:       make([]int, len(a.Segments)),
		Blocks:         make([]int, len(a.Blocks)),
	}
	for i := range a.Segments {
		ret.Segments[i] = a.Segments[i] + b.Segments[i]
	}
	for i := range a.Blocks {
		ret.Blocks[i] = a.Blocks[i] + b.Blocks[i]
	}
	return ret, nil
}

// MergeAll folds Merge over tallies. It returns an error for an empty list.
func MergeAll(tallies ...*Tally) (*Tally, error) {
	if len(tallies) == 0 {
		return nil, fmt.Errorf("no tallies to merge")
	}
	ret := tallies[0]
	for _, t := range tallies[1:] {
		var err error
		if ret, err = Merge(ret, t); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func compatible(a, b *Tally) error {
	switch {
	case a.Track != b.Track:
		return &model.ConsistencyError{What: "track", Want: a.Track, Got: b.Track}
	case a.MaxBlockLength != b.MaxBlockLength:
		return &model.ConsistencyError{
			What: "max block length", Want: a.MaxBlockLength, Got: b.MaxBlockLength,
		}
	case len(a.Segments) != len(b.Segments):
		return &model.ConsistencyError{
			What: "segment count", Want: len(a.Segments), Got: len(b.Segments),
		}
	case len(a.Blocks) != len(b.Blocks):
		return &model.ConsistencyError{What: "block count", Want: len(a.Blocks), Got: len(b.Blocks)}
	}
	return nil
}
