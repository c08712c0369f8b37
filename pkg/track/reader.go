// Package track reads the track geometry files written by the simulator's
// track exporter.
package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
)

// DefaultMaxBendRadius is the radius from which on a bend counts as straight.
const DefaultMaxBendRadius = 1200.0

// column layout of a segment row
const (
	colSLX = iota
	colSLY
	colSLZ
	colSRX
	colSRY
	colSRZ
	colERX
	colERY
	colERZ
	colELX
	colELY
	colELZ
	colLength
	colType
	colCenterX
	colCenterY
	colAngleZS
	colRadius
	numSegmentCols
)

var ErrEmptyTrack = errors.New("track file contains no segments")

type Reader struct {
	maxBendRadius float64
	l             *log.Logger
}

type ReaderOption func(r *Reader)

func WithMaxBendRadius(radius float64) ReaderOption {
	return func(r *Reader) {
		r.maxBendRadius = radius
	}
}

func WithLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.l = l
	}
}

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		maxBendRadius: DefaultMaxBendRadius,
		l:             log.Default().Named("track"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the geometry file of a track inside dir.
func FileName(dir, trackName string) string {
	return filepath.Join(dir, trackName+".csv")
}

// ReadFile reads a geometry file. The track is named after the file.
func (r *Reader) ReadFile(path string) (*model.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.Read(name, path, f)
}

// Read parses the geometry of a track. The first row holds the track length
// and width, every other row one segment. Any malformed row aborts the read.
func (r *Reader) Read(name, source string, in io.Reader) (*model.Track, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	t := &model.Track{Name: name}
	row := 0
	cumulative := 0.0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &model.FormatError{File: source, Row: row, Field: -1, Err: err}
		}
		if row == 1 {
			if err := r.readHeader(t, rec); err != nil {
				return nil, &model.FormatError{File: source, Row: row, Field: -1, Err: err}
			}
			continue
		}
		seg, err := r.parseSegment(rec)
		if err != nil {
			var fe *model.FormatError
			if errors.As(err, &fe) {
				fe.File = source
				fe.Row = row
			}
			return nil, err
		}
		seg.Index = len(t.Segments)
		seg.StartLength = cumulative
		cumulative += seg.Length
		seg.EndLength = cumulative
		t.Segments = append(t.Segments, seg)
	}
	if len(t.Segments) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyTrack)
	}
	r.l.Debug("track read",
		log.String("track", name),
		log.Int("segments", len(t.Segments)),
		log.Float64("length", t.Length),
		log.Float64("analyzedLength", t.AnalyzedLength()))
	return t, nil
}

func (r *Reader) readHeader(t *model.Track, rec []string) error {
	if len(rec) < 2 {
		return fmt.Errorf("header needs length and width, got %d fields", len(rec))
	}
	var err error
	if t.Length, err = parseFloat(rec[0]); err != nil {
		return fmt.Errorf("track length: %w", err)
	}
	if t.Width, err = parseFloat(rec[1]); err != nil {
		return fmt.Errorf("track width: %w", err)
	}
	return nil
}

func (r *Reader) parseSegment(rec []string) (model.Segment, error) {
	seg := model.Segment{}
	if len(rec) < numSegmentCols {
		return seg, &model.FormatError{
			Field: len(rec),
			Err:   fmt.Errorf("segment needs %d fields, got %d", numSegmentCols, len(rec)),
		}
	}
	var vals [numSegmentCols]float64
	for i := range numSegmentCols {
		if i == colType {
			continue
		}
		v, err := parseFloat(rec[i])
		if err != nil {
			return seg, &model.FormatError{Field: i, Err: err}
		}
		vals[i] = v
	}
	code, err := strconv.Atoi(strings.TrimSpace(rec[colType]))
	if err != nil {
		return seg, &model.FormatError{Field: colType, Err: err}
	}

	seg.StartLeft = model.Vertex{X: vals[colSLX], Y: vals[colSLY], Z: vals[colSLZ]}
	seg.StartRight = model.Vertex{X: vals[colSRX], Y: vals[colSRY], Z: vals[colSRZ]}
	seg.EndRight = model.Vertex{X: vals[colERX], Y: vals[colERY], Z: vals[colERZ]}
	seg.EndLeft = model.Vertex{X: vals[colELX], Y: vals[colELY], Z: vals[colELZ]}
	seg.Length = vals[colLength]
	seg.RawType = model.SegmentType(code)
	seg.CenterX = vals[colCenterX]
	seg.CenterY = vals[colCenterY]
	seg.AngleZS = vals[colAngleZS]
	seg.Radius = vals[colRadius]
	seg.Type = EffectiveType(seg.RawType, seg.Radius, r.maxBendRadius)
	seg.Gain = (seg.EndLeft.Z + seg.EndRight.Z - seg.StartLeft.Z - seg.StartRight.Z) / 2
	seg.Width = (planarDist(seg.StartLeft, seg.StartRight) + planarDist(seg.EndLeft, seg.EndRight)) / 2
	return seg, nil
}

// EffectiveType keeps a bend code only if the radius is below maxBendRadius.
// Everything else becomes a straight.
func EffectiveType(code model.SegmentType, radius, maxBendRadius float64) model.SegmentType {
	if code != model.SegmentStraight && radius < maxBendRadius {
		return code
	}
	return model.SegmentStraight
}

func planarDist(a, b model.Vertex) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
