package overtakes

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/race"
)

// HumanDriver is the name the simulator logs for the human player.
const HumanDriver = "Player"

// CarPosition is where a car involved in a counted overtake was when the
// overtake was logged.
type CarPosition struct {
	Driver    string
	Overtaker bool
	X, Y      float64
}

func (c CarPosition) Human() bool { return c.Driver == HumanDriver }

type carKey struct {
	time   float64
	driver string
}

// Positions locates both cars of every qualifying overtake of a race log on
// the track. The car row of a driver logged at the time of the event gives
// the segment (by distance) and the location on it. Events without such a
// row are logged and skipped.
func (p *Parser) Positions(t *model.Track, path string) ([]CarPosition, error) {
	events, err := p.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []CarPosition{}, nil
	}
	wanted := map[carKey]*race.CarRow{}
	for i := range events {
		wanted[carKey{events[i].Time, events[i].Overtaker}] = nil
		wanted[carKey{events[i].Time, events[i].Overtaken}] = nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	if err := collectRows(f, wanted); err != nil {
		return nil, err
	}

	ret := []CarPosition{}
	add := func(ev *model.OvertakeEvent, driver string, overtaker bool) {
		row := wanted[carKey{ev.Time, driver}]
		if row == nil {
			p.l.Warn("no car row for overtake",
				log.String("file", path), log.Float64("time", ev.Time), log.String("driver", driver))
			return
		}
		seg := SegmentAt(t, row.Distance)
		if seg < 0 {
			p.l.Warn("car beyond track end",
				log.String("file", path), log.String("driver", driver), log.Float64("distance", row.Distance))
			return
		}
		x, y := t.Segments[seg].LocalToGlobal(row.ToStart, row.ToMiddle, t.Width)
		ret = append(ret, CarPosition{Driver: driver, Overtaker: overtaker, X: x, Y: y})
	}
	for i := range events {
		add(&events[i], events[i].Overtaker, true)
		add(&events[i], events[i].Overtaken, false)
	}
	return ret, nil
}

// collectRows stores the first car row of every wanted time and driver.
// Malformed rows are reported by the race analysis and ignored here.
func collectRows(in io.Reader, wanted map[carKey]*race.CarRow) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		row, err := race.ParseCarRow(strings.Split(strings.TrimSpace(scanner.Text()), ","))
		if err != nil {
			continue
		}
		k := carKey{row.Time, row.Driver}
		if found, ok := wanted[k]; ok && found == nil {
			wanted[k] = &row
		}
	}
	return scanner.Err()
}
