package model

// DynamicsField selects one telemetry channel of a DynamicsSample.
type DynamicsField int

const (
	FieldAccel DynamicsField = iota
	FieldBrake
	FieldSteer
	FieldOffset
	FieldGear
	FieldSpeed
	NumDynamicsFields
)

// DynamicsFields lists the fields in feature file order.
var DynamicsFields = []DynamicsField{
	FieldAccel, FieldBrake, FieldSteer, FieldOffset, FieldGear, FieldSpeed,
}

var fieldNames = [NumDynamicsFields]string{
	"Accel", "Brake", "Steer", "Offset", "Gear", "Speed",
}

func (f DynamicsField) String() string {
	if f < 0 || f >= NumDynamicsFields {
		return "Unknown"
	}
	return fieldNames[f]
}

// DynamicsSample is one telemetry row of the race log.
type DynamicsSample struct {
	Time     float64
	Driver   string
	Lap      int
	Distance float64 // distance from start line
	Accel    float64
	Brake    float64
	Steer    float64
	Offset   float64 // lateral offset to the track middle
	Gear     float64
	Speed    float64
}

func (s *DynamicsSample) Value(f DynamicsField) float64 {
	switch f {
	case FieldAccel:
		return s.Accel
	case FieldBrake:
		return s.Brake
	case FieldSteer:
		return s.Steer
	case FieldOffset:
		return s.Offset
	case FieldGear:
		return s.Gear
	case FieldSpeed:
		return s.Speed
	default:
		return 0
	}
}

// FieldSamples holds the raw values per dynamics field.
type FieldSamples [NumDynamicsFields][]float64

func (fs *FieldSamples) Add(s *DynamicsSample) {
	for _, f := range DynamicsFields {
		fs[f] = append(fs[f], s.Value(f))
	}
}

func (fs *FieldSamples) Len() int {
	return len(fs[FieldSpeed])
}

func (fs FieldSamples) Clone() FieldSamples {
	var ret FieldSamples
	for i := range fs {
		if fs[i] != nil {
			ret[i] = append([]float64(nil), fs[i]...)
		}
	}
	return ret
}

// Distribution summarizes the samples of one field within a block.
// All values are 0 when there are no samples.
type Distribution struct {
	Mean float64
	Std  float64 // population standard deviation
	Q1   float64
	Q2   float64
	Q3   float64
}
