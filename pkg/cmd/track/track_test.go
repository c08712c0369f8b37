package track

import (
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/testsupport/basedata"
)

func TestSummary(t *testing.T) {
	run := basedata.WriteRun(t)
	cfg := config.Default()
	cfg.TrackDir = run.TrackDir

	out, err := Summary(cfg, basedata.TrackName)
	require.NoError(t, err)
	obj, err := oj.ParseString(out)
	require.NoError(t, err)

	x := jp.MustParseString("$.full.leftBends")
	assert.Equal(t, []any{int64(2)}, x.Get(obj))
	x = jp.MustParseString("$.name")
	assert.Equal(t, []any{basedata.TrackName}, x.Get(obj))
}

func TestSummaryMissingTrack(t *testing.T) {
	cfg := config.Default()
	cfg.TrackDir = t.TempDir()
	_, err := Summary(cfg, "nowhere")
	var missing *model.MissingInputError
	assert.ErrorAs(t, err, &missing)
}
