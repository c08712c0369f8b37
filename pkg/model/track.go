package model

import (
	"fmt"
	"math"
)

// SegmentType holds the segment type code as written by the TORCS track exporter
// (tTrackSeg.type). The numeric values are part of the feature CSV contract.
type SegmentType int

const (
	SegmentNone     SegmentType = 0
	SegmentRight    SegmentType = 1
	SegmentLeft     SegmentType = 2
	SegmentStraight SegmentType = 3
)

func (t SegmentType) String() string {
	switch t {
	case SegmentNone:
		return "none"
	case SegmentRight:
		return "right"
	case SegmentLeft:
		return "left"
	case SegmentStraight:
		return "straight"
	default:
		return fmt.Sprintf("SegmentType(%d)", int(t))
	}
}

func (t SegmentType) IsBend() bool {
	return t == SegmentLeft || t == SegmentRight
}

type Vertex struct {
	X, Y, Z float64
}

//nolint:lll // readability
type Segment struct {
	Index      int
	StartLeft  Vertex
	StartRight Vertex
	EndRight   Vertex
	EndLeft    Vertex
	Length     float64
	RawType    SegmentType // type code as exported
	Type       SegmentType // effective type after the bend radius rule
	CenterX    float64
	CenterY    float64
	AngleZS    float64 // heading at segment start
	Radius     float64 // 0 for straights
	// StartLength is the cumulative length before this segment. It is the exact
	// float of the previous segment's EndLength.
	StartLength float64
	EndLength   float64
	Block       int
	Gain        float64 // elevation gain, average over both edges
	Width       float64 // average of start and end edge distance
	Overtakes   int
	Dynamics    FieldSamples
}

// InverseRadius is 1/radius, 0 for radius 0.
func (s *Segment) InverseRadius() float64 {
	if s.Radius == 0 {
		return 0
	}
	return 1 / s.Radius
}

// StartMidHeight is the height of the midpoint of the start edge.
func (s *Segment) StartMidHeight() float64 {
	return (s.StartLeft.Z + s.StartRight.Z) / 2
}

// LocalToGlobal converts a car location on the segment into xy coordinates.
// toStart is the distance from the segment start, toMiddle the offset to the
// left of the centerline and width the track width. The geometric type is
// used, a reclassified bend is still drawn on its arc.
func (s *Segment) LocalToGlobal(toStart, toMiddle, width float64) (x, y float64) {
	switch {
	case s.RawType == SegmentLeft && s.Radius > 0:
		a := s.AngleZS + toStart/s.Radius
		r := s.Radius - toMiddle
		return s.CenterX + r*math.Sin(a), s.CenterY - r*math.Cos(a)
	case s.RawType == SegmentRight && s.Radius > 0:
		a := s.AngleZS - toStart/s.Radius
		r := s.Radius + toMiddle
		return s.CenterX - r*math.Sin(a), s.CenterY + r*math.Cos(a)
	default:
		cos, sin := math.Cos(s.AngleZS), math.Sin(s.AngleZS)
		tr := toMiddle + width/2
		return s.StartRight.X + toStart*cos - tr*sin, s.StartRight.Y + toStart*sin + tr*cos
	}
}

type Track struct {
	Name string
	// Length and Width are the values of the header row
	Length   float64
	Width    float64
	Segments []Segment
}

// AnalyzedLength is the sum of all segment lengths.
func (t *Track) AnalyzedLength() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].EndLength
}

// Clone returns a deep copy. Each log analysis works on its own copy so
// overtake counters and dynamics samples never leak between runs.
func (t *Track) Clone() *Track {
	ret := &Track{Name: t.Name, Length: t.Length, Width: t.Width}
	ret.Segments = make([]Segment, len(t.Segments))
	for i := range t.Segments {
		ret.Segments[i] = t.Segments[i]
		ret.Segments[i].Dynamics = t.Segments[i].Dynamics.Clone()
	}
	return ret
}

// ResetOvertakes sets all segment overtake counters to 0.
func (t *Track) ResetOvertakes() {
	for i := range t.Segments {
		t.Segments[i].Overtakes = 0
	}
}
