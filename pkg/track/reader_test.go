//nolint:lll // readability
package track

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/model"
)

// row builds a segment line with flat start/end edges 10 apart
func row(length float64, code int, radius float64) string {
	return strings.Join([]string{
		"0", "0", "0", "0", "10", "0", // SL, SR
		"5", "10", "1", "5", "0", "1", // ER, EL
		ftoa(length), strconv.Itoa(code), "0", "0", "0", ftoa(radius),
	}, ",")
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func TestReaderRead(t *testing.T) {
	data := strings.Join([]string{
		"250,12",
		row(100, 3, 0),
		row(50, 2, 80),
		row(100, 1, 1500),
	}, "\n")
	tr, err := NewReader().Read("demo", "demo.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "demo", tr.Name)
	assert.Equal(t, 250.0, tr.Length)
	assert.Equal(t, 12.0, tr.Width)
	require.Len(t, tr.Segments, 3)

	wantTypes := []model.SegmentType{model.SegmentStraight, model.SegmentLeft, model.SegmentStraight}
	wantEnds := []float64{100, 150, 250}
	for i, seg := range tr.Segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, wantTypes[i], seg.Type, "segment %d", i)
		assert.Equal(t, wantEnds[i], seg.EndLength)
		if i > 0 {
			assert.Equal(t, tr.Segments[i-1].EndLength, seg.StartLength)
		}
		assert.InDelta(t, 1.0, seg.Gain, 1e-12)
		assert.InDelta(t, 10.0, seg.Width, 1e-12)
	}
	assert.Equal(t, model.SegmentRight, tr.Segments[2].RawType)
	assert.Equal(t, 250.0, tr.AnalyzedLength())
}

func TestEffectiveType(t *testing.T) {
	tests := []struct {
		name   string
		code   model.SegmentType
		radius float64
		want   model.SegmentType
	}{
		{"tight left", model.SegmentLeft, 100, model.SegmentLeft},
		{"tight right", model.SegmentRight, 1199, model.SegmentRight},
		{"wide right", model.SegmentRight, 1200, model.SegmentStraight},
		{"straight", model.SegmentStraight, 0, model.SegmentStraight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveType(tt.code, tt.radius, DefaultMaxBendRadius))
		})
	}
}

func TestReaderMaxBendRadiusOption(t *testing.T) {
	data := "100,10\n" + row(100, 2, 500)
	tr, err := NewReader(WithMaxBendRadius(400)).Read("t", "t.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, model.SegmentStraight, tr.Segments[0].Type)
}

func TestReaderFormatErrors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantRow   int
		wantField int
	}{
		{"bad header", "abc,10\n" + row(10, 3, 0), 1, -1},
		{"short row", "100,10\n1,2,3", 2, 3},
		{"non numeric", "100,10\n" + row(10, 3, 0) + "\n" + strings.Replace(row(10, 3, 0), "10", "x", 1), 3, 4},
		{"bad type", "100,10\n" + strings.Replace(row(10, 3, 0), ",3,", ",right,", 1), 2, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().Read("t", "t.csv", strings.NewReader(tt.data))
			var fe *model.FormatError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, "t.csv", fe.File)
			assert.Equal(t, tt.wantRow, fe.Row)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestReaderEmpty(t *testing.T) {
	_, err := NewReader().Read("t", "t.csv", strings.NewReader("100,10\n"))
	assert.ErrorIs(t, err, ErrEmptyTrack)
}

func TestReadFileMissing(t *testing.T) {
	_, err := NewReader().ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	var me *model.MissingInputError
	assert.True(t, errors.As(err, &me))
}

func TestReadFileNamesTrack(t *testing.T) {
	dir := t.TempDir()
	path := FileName(dir, "forza")
	require.NoError(t, os.WriteFile(path, []byte("100,10\n"+row(100, 3, 0)+"\n"), 0o600))
	tr, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "forza", tr.Name)
}
