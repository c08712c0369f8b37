package race

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
)

// MaxGap is the largest gap in seconds that is considered realistic.
const MaxGap = 120.0

// DefaultFractions are the lap fractions for the start phase analysis.
var DefaultFractions = []float64{0.3, 0.5, 1}

// column layout of a car row
const (
	colTime     = 0
	colDriver   = 1
	colToStart  = 6
	colToMiddle = 8
	colDistance = 11
	colLap      = 12
	colPosition = 13
)

const gapPrefix = "timeBehindPrev,"

// CarRow is the part of a per car log row used by the race analysis.
// ToStart and ToMiddle locate the car on its segment: the distance from the
// segment start and the lateral offset from the centerline.
type CarRow struct {
	Time     float64
	Driver   string
	ToStart  float64
	ToMiddle float64
	Distance float64
	Lap      int
	Position int
}

// ErrNotCarRow is returned by ParseCarRow for lines of another kind.
var ErrNotCarRow = errors.New("not a car row")

// ParseCarRow converts a car row. Rows need more than 13 fields and must not
// be overtake lines, otherwise ErrNotCarRow is returned. Car rows with a bad
// number yield a *model.FormatError naming the column.
func ParseCarRow(fields []string) (CarRow, error) {
	r := CarRow{}
	if len(fields) <= colPosition || strings.TrimSpace(fields[colDriver]) == "overtake" {
		return r, ErrNotCarRow
	}
	r.Driver = strings.TrimSpace(fields[colDriver])
	floats := []struct {
		col int
		dst *float64
	}{
		{colTime, &r.Time},
		{colToStart, &r.ToStart},
		{colToMiddle, &r.ToMiddle},
		{colDistance, &r.Distance},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[f.col]), 64)
		if err != nil {
			return r, &model.FormatError{Field: f.col, Err: err}
		}
		*f.dst = v
	}
	ints := []struct {
		col int
		dst *int
	}{
		{colLap, &r.Lap},
		{colPosition, &r.Position},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i.col]))
		if err != nil {
			return r, &model.FormatError{Field: i.col, Err: err}
		}
		*i.dst = v
	}
	return r, nil
}

// ParseGapLine converts a "timeBehindPrev,<driver>,<gap>" line.
func ParseGapLine(line string) (driver string, gap float64, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 3 {
		return "", 0, &model.FormatError{
			Field: len(parts),
			Err:   fmt.Errorf("gap line needs 3 fields, got %d", len(parts)),
		}
	}
	gap, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return "", 0, &model.FormatError{Field: 2, Err: err}
	}
	return strings.TrimSpace(parts[1]), gap, nil
}

// LogResult holds what one race log contributes to the run summary.
type LogResult struct {
	Name string
	// FinalVariations is the grid index minus the final position index per
	// driver that finished with a known position.
	FinalVariations []int
	// PartialVariations holds the variations at each requested lap fraction.
	PartialVariations [][]int
	// Gaps is the last valid gap of every listed driver.
	Gaps []float64
}

// Options configure the log analysis.
type Options struct {
	// Drivers in grid order.
	Drivers []string
	// TrackLength is the lap length of the track header.
	TrackLength float64
	Fractions   []float64
	// Logger receives the skipped records. Defaults to the "race" logger.
	Logger *log.Logger
}

// fractionDistance is the lap distance at which the order is taken.
// The full lap is checked 2.5m before the line.
func fractionDistance(f, trackLength float64) float64 {
	if f == 1 {
		return trackLength - 2.5
	}
	return f * trackLength
}

// AnalyzeLogFile analyzes one race log.
func AnalyzeLogFile(path string, opts Options) (*LogResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	return AnalyzeLog(filepath.Base(path), f, opts)
}

// partial tracks the order of the cars at one lap fraction. The order is
// taken from all car rows sharing the time of the first lap 1 row that
// reaches the fraction distance.
type partial struct {
	distance float64
	pending  bool
	done     bool
	order    []string
}

// AnalyzeLog reads a race log in one pass.
func AnalyzeLog(name string, in io.Reader, opts Options) (*LogResult, error) {
	final := map[string]int{}
	gaps := map[string]float64{}
	partials := make([]*partial, len(opts.Fractions))
	for i, fr := range opts.Fractions {
		partials[i] = &partial{distance: fractionDistance(fr, opts.TrackLength)}
	}

	group := []string{}
	groupTime := ""
	closeGroup := func() {
		for _, p := range partials {
			if p.pending {
				p.order = slices.Clone(group)
				p.pending = false
				p.done = true
			}
		}
		group = group[:0]
	}

	l := opts.Logger
	if l == nil {
		l = log.Default().Named("race")
	}
	skip := func(row int, err error) {
		var fe *model.FormatError
		if errors.As(err, &fe) {
			fe.File = name
			fe.Row = row
		}
		l.Warn("skipping race log record", log.ErrorField(err))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, gapPrefix) {
			driver, gap, err := ParseGapLine(line)
			switch {
			case err != nil:
				skip(lineNo, err)
			case gap >= 0 && gap < MaxGap:
				gaps[driver] = gap
			default:
				l.Debug("gap out of range",
					log.String("file", name), log.Int("row", lineNo),
					log.String("driver", driver), log.Float64("gap", gap))
			}
			continue
		}
		fields := strings.Split(line, ",")
		row, err := ParseCarRow(fields)
		if errors.Is(err, ErrNotCarRow) {
			continue
		}
		if err != nil {
			skip(lineNo, err)
			continue
		}
		final[row.Driver] = row.Position

		if fields[colTime] != groupTime {
			closeGroup()
			groupTime = fields[colTime]
		}
		group = append(group, row.Driver)
		if row.Time > 0 && row.Lap == 1 {
			for _, p := range partials {
				if !p.done && !p.pending && row.Distance >= p.distance {
					p.pending = true
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	closeGroup()

	res := &LogResult{Name: name, PartialVariations: make([][]int, len(partials))}
	for i, driver := range opts.Drivers {
		if pos := final[driver]; pos > 0 {
			res.FinalVariations = append(res.FinalVariations, i-(pos-1))
		}
		if gap, ok := gaps[driver]; ok {
			res.Gaps = append(res.Gaps, gap)
		}
	}
	for j, p := range partials {
		res.PartialVariations[j] = orderVariations(opts.Drivers, p.order)
	}
	return res, nil
}

// orderVariations compares the grid order with an observed order.
func orderVariations(grid, order []string) []int {
	ret := []int{}
	for i, driver := range grid {
		if idx := slices.Index(order, driver); idx >= 0 {
			ret = append(ret, i-idx)
		}
	}
	return ret
}
