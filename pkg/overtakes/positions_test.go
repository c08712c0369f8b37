package overtakes

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/track"
	"github.com/racingminer/trackblocks/testsupport/basedata"
)

func TestPositions(t *testing.T) {
	run := basedata.WriteRun(t)
	tr, err := track.NewReader().ReadFile(track.FileName(run.TrackDir, basedata.TrackName))
	require.NoError(t, err)

	got, err := NewParser().Positions(tr, filepath.Join(run.RunDir, run.Logs[0]))
	require.NoError(t, err)

	// 700m lies on the back straight, driven in -x direction at y=200
	backX := 300 - (700 - (300 + math.Pi*100))
	want := []struct {
		driver    string
		overtaker bool
		x, y      float64
	}{
		{"bravo", true, 150, 0},
		{"alpha", false, 150, 0},
		{"charlie", true, 150, 0},
		{"alpha", false, 150, 0},
		{"charlie", true, backX, 200},
		{"bravo", false, backX, 200},
	}
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.driver, got[i].Driver, "car %d", i)
		assert.Equal(t, w.overtaker, got[i].Overtaker, "car %d", i)
		assert.InDelta(t, w.x, got[i].X, 1e-6, "car %d", i)
		assert.InDelta(t, w.y, got[i].Y, 1e-6, "car %d", i)
		assert.False(t, got[i].Human())
	}
}

func TestPositionsWithoutCarRows(t *testing.T) {
	run := basedata.WriteRun(t)
	tr, err := track.NewReader().ReadFile(track.FileName(run.TrackDir, basedata.TrackName))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "2016-03-01-10-20-30-oval.csv")
	rl := (&basedata.RaceLog{}).Grid(basedata.Drivers).
		Overtake(30, 150, "bravo", "alpha", 2)
	require.NoError(t, os.WriteFile(path, []byte(rl.String()), 0o600))

	got, err := NewParser().Positions(tr, path)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewParser().Positions(tr, filepath.Join(t.TempDir(), "missing.csv"))
	var me *model.MissingInputError
	assert.True(t, errors.As(err, &me))
}
