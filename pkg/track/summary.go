package track

import (
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/stats"
)

// Section holds the topology counters of a part of the lap.
// Bends and straights are counted whenever the effective type changes.
type Section struct {
	Length          float64       `json:"length"`
	LeftBends       int           `json:"leftBends"`
	RightBends      int           `json:"rightBends"`
	Straights       int           `json:"straights"`
	StraightsLength float64       `json:"straightsLength"`
	Radiuses        []float64     `json:"-"`
	Heights         []float64     `json:"-"`
	RadiusMoments   stats.Moments `json:"radiuses"`
	HeightMoments   stats.Moments `json:"heights"`
}

type Summary struct {
	Name  string  `json:"name"`
	Width float64 `json:"width"`
	Full  Section `json:"full"`
	Third Section `json:"third"`
	Half  Section `json:"half"`
}

// Summarize computes the topology of the whole lap, the first third and the
// first half of it. A segment belongs to a partial section if the lap
// distance at its end does not exceed the section limit. The length of a
// partial section is the end of its last segment.
func Summarize(t *model.Track) *Summary {
	s := &Summary{Name: t.Name, Width: t.Width}
	s.Full.Length = t.Length
	thirdLimit := t.Length / 3
	halfLimit := t.Length / 2

	prev := model.SegmentNone
	for i := range t.Segments {
		seg := &t.Segments[i]
		end := seg.EndLength
		sections := []*Section{&s.Full}
		if end <= thirdLimit {
			sections = append(sections, &s.Third)
		}
		if end <= halfLimit {
			sections = append(sections, &s.Half)
		}
		for _, sec := range sections {
			sec.add(seg, seg.Type != prev)
			if sec != &s.Full {
				sec.Length = end
			}
		}
		prev = seg.Type
	}
	for _, sec := range []*Section{&s.Full, &s.Third, &s.Half} {
		sec.RadiusMoments = stats.Describe(sec.Radiuses)
		sec.HeightMoments = stats.Describe(sec.Heights)
	}
	return s
}

func (sec *Section) add(seg *model.Segment, typeChanged bool) {
	if seg.Type == model.SegmentStraight {
		sec.StraightsLength += seg.Length
	} else {
		sec.Radiuses = append(sec.Radiuses, seg.Radius)
	}
	if typeChanged {
		switch seg.Type {
		case model.SegmentLeft:
			sec.LeftBends++
		case model.SegmentRight:
			sec.RightBends++
		default:
			sec.Straights++
		}
	}
	sec.Heights = append(sec.Heights, seg.StartMidHeight())
}
