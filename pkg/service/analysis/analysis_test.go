//nolint:funlen // readability
package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/testsupport/basedata"
)

type memStore struct {
	mu     sync.Mutex
	tables []*features.Table
	logs   []int
}

func (m *memStore) SaveTable(_ context.Context, t *features.Table, logCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, t)
	m.logs = append(m.logs, logCount)
	return nil
}

func newTestService(t *testing.T, run *basedata.Run, modify func(c *config.Config), opts ...ServiceOption) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.TrackDir = run.TrackDir
	cfg.Plots = false
	if modify != nil {
		modify(cfg)
	}
	svc, err := NewService(cfg, opts...)
	require.NoError(t, err)
	return svc
}

func TestAnalyzeRun(t *testing.T) {
	run := basedata.WriteRun(t)
	store := &memStore{}
	svc := newTestService(t, run, func(c *config.Config) { c.Store = true }, WithStore(store))

	res, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)

	assert.Equal(t, basedata.TrackName, res.Track)
	assert.Equal(t, run.Logs, res.Logs)
	assert.Equal(t, basedata.Drivers, res.Drivers)
	assert.True(t, res.TrackFound)
	assert.InDelta(t, basedata.Length(basedata.OvalSpecs()), res.TrackLength, 1e-9)

	require.NotNil(t, res.Topology)
	assert.Equal(t, 2, res.Topology.Full.LeftBends)
	assert.Equal(t, 0, res.Topology.Full.RightBends)
	assert.Equal(t, 2, res.Topology.Full.Straights)

	// the lap 1 overtake does not count
	assert.Equal(t, 4, res.TotalOvertakes)
	require.NotNil(t, res.Overtakes)
	assert.Equal(t, 4, res.Overtakes.Total())

	require.NotNil(t, res.Race)
	assert.Equal(t, 2, res.Race.Logs)
	assert.InDelta(t, 0, res.Race.Positions.Mean, 1e-12)
	assert.InDelta(t, 7.5/4, res.Race.Gaps.Mean, 1e-12)

	require.NotNil(t, res.Entropy.Speed)
	assert.Greater(t, *res.Entropy.Speed, 0.0)

	for _, name := range []string{
		features.FileName(basedata.TrackName),
		features.FileNameWithoutOvertakes(basedata.TrackName, 200),
		ResultsFileName(basedata.TrackName),
	} {
		assert.FileExists(t, filepath.Join(run.RunDir, name))
	}

	table, err := features.ReadFile(filepath.Join(run.RunDir, features.FileName(basedata.TrackName)))
	require.NoError(t, err)
	assert.True(t, table.WithOvertakes)
	if diff := cmp.Diff(res.Overtakes.Blocks, table.OvertakeCounts()); diff != "" {
		t.Errorf("OvertakeCounts() mismatch (-want +got):\n%s", diff)
	}

	plain, err := features.ReadFile(filepath.Join(run.RunDir,
		features.FileNameWithoutOvertakes(basedata.TrackName, 200)))
	require.NoError(t, err)
	assert.False(t, plain.WithOvertakes)
	speed, ok := plain.Metric("SpeedAvg")
	require.True(t, ok)
	for i, v := range speed {
		assert.Greater(t, v, 0.0, "block %d has no speed samples", i)
	}

	require.Len(t, store.tables, 2)
	assert.False(t, store.tables[0].WithOvertakes)
	assert.True(t, store.tables[1].WithOvertakes)
	assert.Equal(t, []int{2, 2}, store.logs)
}

func TestAnalyzeRunWithPlots(t *testing.T) {
	run := basedata.WriteRun(t)
	out := t.TempDir()
	svc := newTestService(t, run, func(c *config.Config) {
		c.Plots = true
		c.CarPositions = true
		c.OutputDir = out
	})

	res, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)

	for _, rel := range []string{
		"track/blocks.svg",
		"track/block-lengths.svg",
		"track/block-radius.svg",
		"track/prevrad400.svg",
		"overtakes/overtakes.svg",
		"overtakes/overtakes-with-cars.svg",
		"overtakes/" + strings.TrimSuffix(run.Logs[0], ".csv") + ".svg",
		"overtakes/" + strings.TrimSuffix(run.Logs[1], ".csv") + "-with-cars.svg",
	} {
		assert.FileExists(t, filepath.Join(out, rel))
		assert.Contains(t, res.Files, filepath.Join(out, rel))
	}
}

func TestAnalyzeRunWithoutTrack(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, func(c *config.Config) { c.TrackDir = t.TempDir() })

	res, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)
	assert.False(t, res.TrackFound)
	assert.Nil(t, res.Topology)
	assert.Zero(t, res.TotalOvertakes)
	assert.Equal(t, DefaultTrackLength, res.TrackLength)
	assert.NoFileExists(t, filepath.Join(run.RunDir, features.FileName(basedata.TrackName)))

	data, err := os.ReadFile(filepath.Join(run.RunDir, ResultsFileName(basedata.TrackName)))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\r\n")
	require.Len(t, lines, 2)
	row := strings.Split(lines[1], ";")
	assert.Len(t, row, len(ResultsHeader()))
	assert.Equal(t, basedata.TrackName, row[0])
	assert.Equal(t, "0", row[1])
}

func TestAnalyzeRunWithoutLogs(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, nil)

	_, err := svc.AnalyzeRun(context.Background(), t.TempDir())
	assert.True(t, errors.Is(err, ErrNoLogs))
}

func TestAnalyzeAllSkipsFailingRuns(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, nil)

	res := svc.AnalyzeAll(context.Background(), []string{t.TempDir(), run.RunDir})
	require.Len(t, res, 1)
	assert.Equal(t, filepath.Clean(run.RunDir), res[0].Run)
}

func TestNewServiceValidatesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBlockLength = 0
	_, err := NewService(cfg)
	assert.Error(t, err)
}

func TestResultsLayout(t *testing.T) {
	header := ResultsHeader()
	assert.Len(t, header, 50)
	assert.Equal(t, "Length (1/3 lap)", header[13])
	assert.Equal(t, "Positions variations (1 lap) skew", header[len(header)-1])

	row := ResultsRow(&Result{Track: "forza"})
	assert.Len(t, row, len(header))
}

func TestReportJSON(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, nil)
	res, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)

	report := NewReport(res)
	full, err := report.JSON("")
	require.NoError(t, err)
	parsed, err := oj.ParseString(full)
	require.NoError(t, err)
	obj, ok := parsed.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(4), obj["total_overtakes"])
	assert.Equal(t, int64(2), obj["left_bends"])

	sel, err := report.JSON("$.total_overtakes")
	require.NoError(t, err)
	parsed, err = oj.ParseString(sel)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4)}, parsed)

	_, err = report.JSON("$[")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Block radius", "block-radius"},
		{"Previous radiuses mean", "previous-radiuses-mean"},
		{"SpeedQ1", "speedq1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestWatchRerunsOnNewLog(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan *Result, 4)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, run.RunDir, 50*time.Millisecond, func(res *Result) {
			results <- res
		})
	}()

	first := waitResult(t, results)
	assert.Len(t, first.Logs, 2)

	data, err := os.ReadFile(filepath.Join(run.RunDir, run.Logs[1]))
	require.NoError(t, err)
	third := "2016-03-03-12-00-00-" + basedata.TrackName + ".csv"
	require.NoError(t, os.WriteFile(filepath.Join(run.RunDir, third), data, 0o600))

	second := waitResult(t, results)
	assert.Len(t, second.Logs, 3)
	assert.Equal(t, 5, second.TotalOvertakes)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func waitResult(t *testing.T, ch <-chan *Result) *Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("no analysis result")
		return nil
	}
}

func TestAnalyzeRunReusesCachedTrack(t *testing.T) {
	run := basedata.WriteRun(t)
	svc := newTestService(t, run, nil, WithTrackCacheTTL(0))

	first, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.tracks.Len())

	second, err := svc.AnalyzeRun(context.Background(), run.RunDir)
	require.NoError(t, err)
	assert.Equal(t, first.TotalOvertakes, second.TotalOvertakes)
	if diff := cmp.Diff(first.Overtakes, second.Overtakes); diff != "" {
		t.Errorf("cached track leaked state (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Entropy, second.Entropy); diff != "" {
		t.Errorf("cached track leaked dynamics (-first +second):\n%s", diff)
	}
}
