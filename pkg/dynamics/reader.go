// Package dynamics attributes telemetry samples to track segments and
// aggregates them per block.
package dynamics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
)

// column layout of a telemetry row
const (
	colTime     = 0
	colDriver   = 1
	colSpeed    = 5
	colOffset   = 8
	colDistance = 11
	colLap      = 12
	colSteer    = 22
	colAccel    = 23
	colBrake    = 24
	colGear     = 25
	// NumColumns is the minimum number of fields of a telemetry row.
	NumColumns = 26
)

// FileName returns the telemetry file of a track inside dir.
func FileName(dir, trackName string) string {
	return filepath.Join(dir, trackName+"_dynamics.csv")
}

type Reader struct {
	lap    int
	driver string
	l      *log.Logger
}

type ReaderOption func(r *Reader)

// WithLap restricts the samples to one lap. 0 accepts every lap.
func WithLap(lap int) ReaderOption {
	return func(r *Reader) {
		r.lap = lap
	}
}

// WithDriver restricts the samples to one driver name.
func WithDriver(name string) ReaderOption {
	return func(r *Reader) {
		r.driver = name
	}
}

func WithLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.l = l
	}
}

// NewReader creates a reader that by default yields lap 1 samples only.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{lap: 1, l: log.Default().Named("dynamics")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile reads all matching samples of a telemetry file.
func (r *Reader) ReadFile(path string) ([]model.DynamicsSample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	ret := []model.DynamicsSample{}
	err = r.Scan(path, f, func(s *model.DynamicsSample) error {
		ret = append(ret, *s)
		return nil
	})
	return ret, err
}

// Scan calls fn for every matching sample in emission order.
// Malformed rows are logged and skipped. An error returned by fn stops the scan.
func (r *Reader) Scan(source string, in io.Reader, fn func(s *model.DynamicsSample) error) error {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	row := 0
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			r.skip(&model.FormatError{File: source, Row: row, Field: -1, Err: err})
			skipped++
			continue
		}
		if len(rec) < NumColumns {
			r.skip(&model.FormatError{
				File: source, Row: row, Field: len(rec),
				Err: fmt.Errorf("telemetry row needs %d fields, got %d", NumColumns, len(rec)),
			})
			skipped++
			continue
		}
		s, err := ParseSample(rec)
		if err != nil {
			var fe *model.FormatError
			if errors.As(err, &fe) {
				fe.File = source
				fe.Row = row
			}
			r.skip(err)
			skipped++
			continue
		}
		if r.lap != 0 && s.Lap != r.lap {
			continue
		}
		if r.driver != "" && s.Driver != r.driver {
			continue
		}
		if err := fn(&s); err != nil {
			return err
		}
	}
	if skipped > 0 {
		r.l.Info("skipped malformed telemetry rows",
			log.String("file", source), log.Int("skipped", skipped))
	}
	return nil
}

func (r *Reader) skip(err error) {
	r.l.Warn("skipping telemetry row", log.ErrorField(err))
}

// ParseSample converts a telemetry row with at least NumColumns fields.
func ParseSample(rec []string) (model.DynamicsSample, error) {
	s := model.DynamicsSample{Driver: strings.TrimSpace(rec[colDriver])}
	floats := []struct {
		col int
		dst *float64
	}{
		{colTime, &s.Time},
		{colSpeed, &s.Speed},
		{colOffset, &s.Offset},
		{colDistance, &s.Distance},
		{colSteer, &s.Steer},
		{colAccel, &s.Accel},
		{colBrake, &s.Brake},
		{colGear, &s.Gear},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.col]), 64)
		if err != nil {
			return s, &model.FormatError{Field: f.col, Err: err}
		}
		*f.dst = v
	}
	lap, err := strconv.Atoi(strings.TrimSpace(rec[colLap]))
	if err != nil {
		return s, &model.FormatError{Field: colLap, Err: err}
	}
	s.Lap = lap
	return s, nil
}
