package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/racingminer/trackblocks/pkg/model"
)

// Delimiter separates the columns of a feature file.
const Delimiter = ';'

// metric values are written in fixed notation with this many decimals
const metricDecimals = 20

// FileName is the name of the feature file with overtake counts.
func FileName(track string) string {
	return track + "-blocks-data.csv"
}

const withoutOvertakesInfix = "-blocks-data-without-overtakes-"

// FileNameWithoutOvertakes is the name of the feature file without overtakes.
func FileNameWithoutOvertakes(track string, maxBlockLength float64) string {
	return track + withoutOvertakesInfix +
		strconv.FormatFloat(maxBlockLength, 'f', -1, 64) + ".csv"
}

// MaxBlockLengthOf returns the block length cap encoded in the name of a
// feature file without overtakes.
func MaxBlockLengthOf(path string) (float64, bool) {
	base := filepath.Base(path)
	i := strings.LastIndex(base, withoutOvertakesInfix)
	if i < 0 || !strings.HasSuffix(base, ".csv") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(base[i+len(withoutOvertakesInfix):], ".csv"), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FileNameOf returns the file name matching the table kind.
func FileNameOf(t *Table) string {
	if t.WithOvertakes {
		return FileName(t.Track)
	}
	return FileNameWithoutOvertakes(t.Track, t.MaxBlockLength)
}

// WriteFile writes the table into dir and returns the file path.
func WriteFile(dir string, t *Table) (string, error) {
	path := filepath.Join(dir, FileNameOf(t))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Encode(f, t); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Encode writes the header and one line per block. Lines end with CRLF.
func Encode(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	cw.UseCRLF = true
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	rec := make([]string, 0, len(t.MetricColumns)+len(leadingColumns)+1)
	for i := range t.Rows {
		r := &t.Rows[i]
		rec = rec[:0]
		overtakes := ""
		if t.WithOvertakes {
			overtakes = strconv.Itoa(r.Overtakes)
		}
		rec = append(rec,
			r.Track,
			strconv.Itoa(int(r.Type)),
			strconv.Itoa(int(r.PrevType)),
			strconv.Itoa(int(r.NextType)),
			overtakes,
			FormatShort(r.Length),
		)
		for _, v := range r.Metrics {
			rec = append(rec, FormatMetric(v))
		}
		rec = append(rec, FormatShort(r.LapPosition))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatMetric renders v in fixed notation with 20 decimals.
func FormatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', metricDecimals, 64)
}

// FormatShort renders v as the shortest decimal that parses back to v.
// Integral values keep a trailing ".0", very small and very large magnitudes
// use exponent notation.
func FormatShort(v float64) string {
	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// ReadFile decodes a feature file. The block length cap is taken from the
// file name when it carries one.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	t, err := Decode(path, f)
	if err != nil {
		return nil, err
	}
	if v, ok := MaxBlockLengthOf(path); ok {
		t.MaxBlockLength = v
	}
	return t, nil
}

// Decode reads a feature file. The metric columns are the ones between
// Length and Lap position. A table has overtakes unless every Overtakes
// cell is empty. MaxBlockLength is not part of the content and stays 0.
func Decode(source string, in io.Reader) (*Table, error) {
	cr := csv.NewReader(in)
	cr.Comma = Delimiter
	header, err := cr.Read()
	if err != nil {
		return nil, &model.FormatError{File: source, Row: 1, Field: -1, Err: err}
	}
	n := len(leadingColumns)
	if len(header) < n+1 || !slices.Equal(header[:n], leadingColumns) ||
		header[len(header)-1] != ColLapPosition {
		return nil, &model.FormatError{
			File: source, Row: 1, Field: -1, Err: fmt.Errorf("unexpected header"),
		}
	}
	t := &Table{MetricColumns: slices.Clone(header[n : len(header)-1])}
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &model.FormatError{File: source, Row: row, Field: -1, Err: err}
		}
		r, hasOvertakes, err := decodeRow(rec, len(t.MetricColumns))
		if err != nil {
			var fe *model.FormatError
			if errors.As(err, &fe) {
				fe.File = source
				fe.Row = row
			}
			return nil, err
		}
		t.WithOvertakes = t.WithOvertakes || hasOvertakes
		t.Rows = append(t.Rows, r)
	}
	if len(t.Rows) > 0 {
		t.Track = t.Rows[0].Track
	}
	return t, nil
}

func decodeRow(rec []string, metrics int) (Row, bool, error) {
	r := Row{}
	types := []*model.SegmentType{&r.Type, &r.PrevType, &r.NextType}
	for i, dst := range types {
		v, err := strconv.Atoi(rec[i+1])
		if err != nil {
			return r, false, &model.FormatError{Field: i + 1, Err: err}
		}
		*dst = model.SegmentType(v)
	}
	r.Track = rec[0]
	hasOvertakes := rec[4] != ""
	if hasOvertakes {
		v, err := strconv.Atoi(rec[4])
		if err != nil {
			return r, false, &model.FormatError{Field: 4, Err: err}
		}
		r.Overtakes = v
	}
	var err error
	if r.Length, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return r, false, &model.FormatError{Field: 5, Err: err}
	}
	r.Metrics = make([]float64, metrics)
	offset := len(leadingColumns)
	for j := range metrics {
		if r.Metrics[j], err = strconv.ParseFloat(rec[offset+j], 64); err != nil {
			return r, false, &model.FormatError{Field: offset + j, Err: err}
		}
	}
	last := offset + metrics
	if r.LapPosition, err = strconv.ParseFloat(rec[last], 64); err != nil {
		return r, false, &model.FormatError{Field: last, Err: err}
	}
	return r, hasOvertakes, nil
}
