package model

// Block is a run of consecutive segments of one effective type.
// First and Last are segment indexes (inclusive).
type Block struct {
	Index       int
	First       int
	Last        int
	StartLength float64
	EndLength   float64
	Length      float64
	Type        SegmentType
	Metrics     BlockMetrics
}

// NumSegments returns the number of member segments.
func (b *Block) NumSegments() int {
	return b.Last - b.First + 1
}

type BlockMetrics struct {
	InverseRadius float64
	Grade         float64
	Width         float64
	Overtakes     int
	Dynamics      [NumDynamicsFields]Distribution
}
