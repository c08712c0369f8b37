// Package basedata creates track, telemetry and race log files for tests.
package basedata

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/racingminer/trackblocks/pkg/model"
)

const (
	TrackName = "oval"
	Width     = 10.0
	// LogTimestamp is the prefix of the sample log names.
	LogTimestamp = "2016-03-01-10-20-30-"
)

// Drivers in grid order.
var Drivers = []string{"alpha", "bravo", "charlie"}

type SegmentSpec struct {
	Type   model.SegmentType
	Length float64
	Radius float64
}

// OvalSpecs is a 300m straight, a half circle left bend of radius 100 split
// into 4 segments, another straight and bend.
func OvalSpecs() []SegmentSpec {
	ret := []SegmentSpec{}
	quarter := math.Pi * 100 / 4
	for range 2 {
		for range 3 {
			ret = append(ret, SegmentSpec{Type: model.SegmentStraight, Length: 100})
		}
		for range 4 {
			ret = append(ret, SegmentSpec{Type: model.SegmentLeft, Length: quarter, Radius: 100})
		}
	}
	return ret
}

// Length sums the segment lengths.
func Length(specs []SegmentSpec) float64 {
	ret := 0.0
	for _, s := range specs {
		ret += s.Length
	}
	return ret
}

// TrackCSV renders the specs in the track exporter format. The elevation
// follows one sine wave over the lap.
func TrackCSV(specs []SegmentSpec, width float64) string {
	total := Length(specs)
	height := func(s float64) float64 { return 2 * math.Sin(2*math.Pi*s/total) }
	sb := strings.Builder{}
	sb.WriteString(join(ftoa(total), ftoa(width)))
	x, y, heading, dist := 0.0, 0.0, 0.0, 0.0
	half := width / 2
	for _, s := range specs {
		nx, ny := -math.Sin(heading), math.Cos(heading)
		z0 := height(dist)
		cx, cy := 0.0, 0.0
		var ex, ey, eh float64
		switch s.Type {
		case model.SegmentLeft:
			cx, cy = x+s.Radius*nx, y+s.Radius*ny
			eh = heading + s.Length/s.Radius
			ex, ey = cx+s.Radius*math.Sin(eh), cy-s.Radius*math.Cos(eh)
		case model.SegmentRight:
			cx, cy = x-s.Radius*nx, y-s.Radius*ny
			eh = heading - s.Length/s.Radius
			ex, ey = cx-s.Radius*math.Sin(eh), cy+s.Radius*math.Cos(eh)
		default:
			eh = heading
			ex, ey = x+s.Length*math.Cos(heading), y+s.Length*math.Sin(heading)
		}
		z1 := height(dist + s.Length)
		enx, eny := -math.Sin(eh), math.Cos(eh)
		sb.WriteString(join(
			ftoa(x+half*nx), ftoa(y+half*ny), ftoa(z0),
			ftoa(x-half*nx), ftoa(y-half*ny), ftoa(z0),
			ftoa(ex-half*enx), ftoa(ey-half*eny), ftoa(z1),
			ftoa(ex+half*enx), ftoa(ey+half*eny), ftoa(z1),
			ftoa(s.Length), strconv.Itoa(int(s.Type)),
			ftoa(cx), ftoa(cy), ftoa(heading), ftoa(s.Radius),
		))
		x, y, heading = ex, ey, eh
		dist += s.Length
	}
	return sb.String()
}

// Sample is one car row, used for telemetry files and race logs.
type Sample struct {
	Time     float64
	Driver   string
	Lap      int
	Distance float64
	ToStart  float64 // distance from the start of the segment
	Position int
	Speed    float64
	Offset   float64
	Steer    float64
	Accel    float64
	Brake    float64
	Gear     int
}

// Row renders the 26 column car row.
func (s Sample) Row() string {
	return join(
		ftoa(s.Time), s.Driver, "car", "0", "1", ftoa(s.Speed),
		ftoa(s.ToStart), "5", ftoa(s.Offset), "5", "0",
		ftoa(s.Distance), strconv.Itoa(s.Lap), strconv.Itoa(s.Position),
		"0", "0", "0", "0", "0", "0", "0", "50",
		ftoa(s.Steer), ftoa(s.Accel), ftoa(s.Brake), strconv.Itoa(s.Gear),
	)
}

// LapSamples returns one sample every step meters of the first lap. Speed
// rises with the distance, braking happens in the bends.
func LapSamples(driver string, specs []SegmentSpec, step float64) []Sample {
	ret := []Sample{}
	total := Length(specs)
	for d := step / 2; d < total; d += step {
		seg, toStart := Locate(specs, d)
		s := Sample{
			Time:     d / 50,
			Driver:   driver,
			Lap:      1,
			Distance: d,
			ToStart:  toStart,
			Position: 1,
			Speed:    30 + d/total*20,
			Offset:   math.Sin(d / 37),
			Gear:     3,
		}
		if specs[seg].Type.IsBend() {
			s.Brake = 0.4
			s.Steer = 0.2
			s.Accel = 0.3
			s.Gear = 2
		} else {
			s.Accel = 1
		}
		ret = append(ret, s)
	}
	return ret
}

// Locate returns the segment holding distance d and the distance from its
// start.
func Locate(specs []SegmentSpec, d float64) (seg int, toStart float64) {
	start := 0.0
	for seg < len(specs)-1 && start+specs[seg].Length < d {
		start += specs[seg].Length
		seg++
	}
	return seg, d - start
}

// RaceLog builds the text of a race log.
type RaceLog struct {
	sb strings.Builder
}

// Grid adds the pre start rows of all drivers in grid order.
func (r *RaceLog) Grid(drivers []string) *RaceLog {
	for i, d := range drivers {
		r.Car(Sample{Time: -1.8, Driver: d, Position: i + 1})
	}
	return r
}

func (r *RaceLog) Car(s Sample) *RaceLog {
	r.sb.WriteString(s.Row())
	return r
}

// Overtake adds an overtake line with both cars racing.
func (r *RaceLog) Overtake(time, dist float64, overtaker, overtaken string, laps int) *RaceLog {
	r.sb.WriteString(join(
		ftoa(time), "overtake", ftoa(dist), overtaker, "0", "0", "0", "0",
		strconv.Itoa(laps), overtaken, "0", "0",
	))
	return r
}

func (r *RaceLog) Gap(driver string, gap float64) *RaceLog {
	r.sb.WriteString(join("timeBehindPrev", driver, ftoa(gap)))
	return r
}

func (r *RaceLog) String() string { return r.sb.String() }

// Run describes the files written by WriteRun.
type Run struct {
	TrackDir string
	RunDir   string
	Logs     []string
}

// WriteRun writes the oval track with telemetry and two race logs into a
// temporary directory.
//
//nolint:funlen // fixture data
func WriteRun(t testing.TB) *Run {
	t.Helper()
	root := t.TempDir()
	ret := &Run{
		TrackDir: filepath.Join(root, "tracks"),
		RunDir:   filepath.Join(root, "run"),
	}
	specs := OvalSpecs()
	total := Length(specs)
	writeFile(t, filepath.Join(ret.TrackDir, TrackName+".csv"), TrackCSV(specs, Width))

	dyn := strings.Builder{}
	for _, s := range LapSamples(Drivers[0], specs, 5) {
		dyn.WriteString(s.Row())
	}
	writeFile(t, filepath.Join(ret.TrackDir, TrackName+"_dynamics.csv"), dyn.String())

	// alpha drops to last during lap 1, bravo and charlie gain
	first := (&RaceLog{}).Grid(Drivers)
	order := [][]string{
		{"alpha", "bravo", "charlie"},
		{"bravo", "alpha", "charlie"},
		{"bravo", "charlie", "alpha"},
	}
	for step, d := range []float64{0.2 * total, 0.4 * total, total - 1} {
		for pos, name := range order[step] {
			first.Car(Sample{
				Time: float64(step + 1), Driver: name, Lap: 1,
				Distance: d - float64(pos), Position: pos + 1,
			})
		}
	}
	// car rows at the overtake times keep the final order
	at := func(rl *RaceLog, time, dist float64, lap int, order ...string) {
		_, toStart := Locate(specs, dist)
		for pos, name := range order {
			rl.Car(Sample{
				Time: time, Driver: name, Lap: lap,
				Distance: dist, ToStart: toStart, Position: pos + 1,
			})
		}
	}
	at(first, 30, 150, 2, "bravo", "charlie", "alpha")
	at(first, 31, 150, 2, "bravo", "charlie", "alpha")
	at(first, 32, 700, 3, "bravo", "charlie", "alpha")
	first.Overtake(30, 150, "bravo", "alpha", 2).
		Overtake(31, 150, "charlie", "alpha", 2).
		Overtake(32, 700, "charlie", "bravo", 3).
		Overtake(5, 50, "bravo", "alpha", 1).
		Gap("alpha", 0).
		Gap("bravo", 1.5).
		Gap("charlie", 2.5)

	second := (&RaceLog{}).Grid(Drivers)
	for pos, name := range Drivers {
		second.Car(Sample{Time: 1, Driver: name, Lap: 1, Distance: total - float64(pos), Position: pos + 1})
	}
	at(second, 40, 700, 4, "alpha", "bravo", "charlie")
	second.Overtake(40, 700, "alpha", "bravo", 4).
		Gap("bravo", 0.5).
		Gap("charlie", 3)

	ret.Logs = []string{LogTimestamp + TrackName + ".csv", "2016-03-02-11-00-00-" + TrackName + ".csv"}
	writeFile(t, filepath.Join(ret.RunDir, ret.Logs[0]), first.String())
	writeFile(t, filepath.Join(ret.RunDir, ret.Logs[1]), second.String())
	return ret
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func join(fields ...string) string {
	return strings.Join(fields, ",") + "\n"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
