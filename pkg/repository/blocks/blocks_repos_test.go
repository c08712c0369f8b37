//nolint:funlen // ok for this test code
package blocks

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"gotest.tools/v3/assert"

	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/testsupport/testdb"
)

func sampleTable(withOvertakes bool) *features.Table {
	t := &features.Table{
		Track:          "forza",
		MaxBlockLength: 200,
		WithOvertakes:  withOvertakes,
		MetricColumns:  []string{"Block radius", "Grade", "SpeedAvg"},
	}
	types := []model.SegmentType{model.SegmentStraight, model.SegmentLeft, model.SegmentRight}
	for i, typ := range types {
		r := features.Row{
			Track:       t.Track,
			Type:        typ,
			PrevType:    types[(i+len(types)-1)%len(types)],
			NextType:    types[(i+1)%len(types)],
			Length:      100 + float64(i)*0.1,
			Metrics:     []float64{float64(i) / 3, -0.0125 * float64(i), 41.123456789012345},
			LapPosition: float64(i) / 3,
		}
		if withOvertakes {
			r.Overtakes = i * 2
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func TestSaveAndLoadRun(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		withOvertakes bool
	}{
		{name: "with overtakes", withOvertakes: true},
		{name: "without overtakes", withOvertakes: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := sampleTable(tt.withOvertakes)
			var run *Run
			err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
				var err error
				run, err = SaveRun(ctx, tx, want, 3)
				return err
			})
			assert.NilError(t, err)

			gotRun, got, err := LoadRun(ctx, pool, run.ID)
			assert.NilError(t, err)
			assert.Equal(t, gotRun.LogCount, 3)
			assert.Equal(t, gotRun.WithOvertakes, tt.withOvertakes)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("LoadRun() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadRunNotFound(t *testing.T) {
	pool := testdb.InitTestDb(t)
	_, _, err := LoadRun(context.Background(), pool, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListAndDeleteRuns(t *testing.T) {
	pool := testdb.InitTestDb(t)
	ctx := context.Background()

	first, err := SaveRun(ctx, pool, sampleTable(false), 1)
	assert.NilError(t, err)
	second, err := SaveRun(ctx, pool, sampleTable(true), 2)
	assert.NilError(t, err)

	runs, err := ListRuns(ctx, pool, "forza")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 2)
	assert.Equal(t, runs[0].ID, second.ID)

	n, err := DeleteRun(ctx, pool, first.ID)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)

	var blocks int
	err = pool.QueryRow(ctx, "select count(*) from block_feature where run_id=$1", first.ID).
		Scan(&blocks)
	assert.NilError(t, err)
	assert.Equal(t, blocks, 0)

	runs, err = ListRuns(ctx, pool, "forza")
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
}
