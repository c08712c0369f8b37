package model

// OvertakeEvent is one "overtake" line of a race log.
type OvertakeEvent struct {
	Time           float64
	Distance       float64
	Overtaker      string
	OvertakerState int
	OvertakerLaps  int
	Overtaken      string
	OvertakenState int
}

// Qualifies reports whether the event is counted. Both cars must be racing
// (state 0) and the overtaker must be past the first lap.
func (e *OvertakeEvent) Qualifies() bool {
	return e.OvertakerState == 0 && e.OvertakenState == 0 && e.OvertakerLaps > 1
}
