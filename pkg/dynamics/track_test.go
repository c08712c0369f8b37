package dynamics

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/model"
)

func TestAttributeTrack(t *testing.T) {
	dir := t.TempDir()
	data := strings.Join([]string{
		telemetryRow("alice", 1, 5, 1),
		telemetryRow("bob", 1, 6, 2),
		telemetryRow("alice", 1, 15, 3),
		telemetryRow("alice", 2, 5, 4),
	}, "\n")
	require.NoError(t, os.WriteFile(FileName(dir, "forza"), []byte(data), 0o600))

	cfg := config.Default()
	cfg.DynamicsDriver = "alice"
	tr := trackOf(10, 10)
	tr.Name = "forza"
	n, err := ForConfig(cfg, log.New(&bytes.Buffer{}, log.DebugLevel)).AttributeTrack(tr, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]float64{{1}, {3}}, speeds(tr))
}

func TestAttributeTrackWithoutSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(FileName(dir, "empty"),
		[]byte(telemetryRow("bob", 3, 5, 1)+"\n1,2,3\n"), 0o600))

	tests := []struct {
		name    string
		track   string
		wantLog string
	}{
		{name: "missing file", track: "nowhere", wantLog: "dynamics data not found"},
		{name: "no valid sample", track: "empty", wantLog: "no valid dynamics samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tr := trackOf(10, 10)
			tr.Name = tt.track
			n, err := ForConfig(config.Default(), log.New(buf, log.DebugLevel)).AttributeTrack(tr, dir)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			assert.Contains(t, buf.String(), tt.wantLog)
			for i := range tr.Segments {
				assert.Empty(t, tr.Segments[i].Dynamics[model.FieldSpeed])
			}
		})
	}
}
