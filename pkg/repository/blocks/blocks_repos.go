//nolint:whitespace //can't make both the linter and editor happy :(
package blocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/db/mytypes"
	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/repository"
)

var ErrRunNotFound = errors.New("track run not found")

// Run is the stored header of a feature table.
type Run struct {
	ID             uuid.UUID
	Track          string
	MaxBlockLength float64
	WithOvertakes  bool
	LogCount       int
	Columns        mytypes.ColumnList
	Created        time.Time
}

// SaveRun stores the table as one track_run row plus one block_feature row per
// block. Use a transaction as conn to make it atomic.
func SaveRun(
	ctx context.Context,
	conn repository.Querier,
	t *features.Table,
	logCount int,
) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	run := &Run{
		ID:             id,
		Track:          t.Track,
		MaxBlockLength: t.MaxBlockLength,
		WithOvertakes:  t.WithOvertakes,
		LogCount:       logCount,
		Columns:        mytypes.ColumnList(t.MetricColumns),
		Created:        time.Now().UTC(),
	}
	_, err = conn.Exec(ctx,
		`insert into track_run
		(id, track, max_block_length, with_overtakes, log_count, columns, created)
		values ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.Track, run.MaxBlockLength, run.WithOvertakes, run.LogCount,
		run.Columns, run.Created)
	if err != nil {
		return nil, fmt.Errorf("insert track_run: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range t.Rows {
		r := &t.Rows[i]
		metrics := make(mytypes.MetricMap, len(t.MetricColumns))
		for j, name := range t.MetricColumns {
			metrics[name] = r.Metrics[j]
		}
		var overtakes *int
		if t.WithOvertakes {
			overtakes = &r.Overtakes
		}
		batch.Queue(`insert into block_feature
			(run_id, block_index, block_type, overtakes, length, lap_position, metrics)
			values ($1,$2,$3,$4,$5,$6,$7)`,
			run.ID, i, int(r.Type), overtakes, r.Length, r.LapPosition, metrics)
	}
	if err := sendBatch(ctx, conn, batch); err != nil {
		return nil, fmt.Errorf("insert block_feature: %w", err)
	}
	return run, nil
}

func sendBatch(ctx context.Context, conn repository.Querier, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	sender, ok := conn.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		for _, q := range batch.QueuedQueries {
			if _, err := conn.Exec(ctx, q.SQL, q.Arguments...); err != nil {
				return err
			}
		}
		return nil
	}
	return sender.SendBatch(ctx, batch).Close()
}

// LoadRun reads a stored table back in block order.
func LoadRun(
	ctx context.Context,
	conn repository.Querier,
	id uuid.UUID,
) (*Run, *features.Table, error) {
	run := &Run{}
	err := conn.QueryRow(ctx,
		`select id, track, max_block_length, with_overtakes, log_count, columns, created
		from track_run where id=$1`, id).
		Scan(&run.ID, &run.Track, &run.MaxBlockLength, &run.WithOvertakes,
			&run.LogCount, &run.Columns, &run.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := conn.Query(ctx,
		`select block_index, block_type, overtakes, length, lap_position, metrics
		from block_feature where run_id=$1 order by block_index`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	t := &features.Table{
		Track:          run.Track,
		MaxBlockLength: run.MaxBlockLength,
		WithOvertakes:  run.WithOvertakes,
		MetricColumns:  []string(run.Columns),
	}
	for rows.Next() {
		var (
			idx, typ  int
			overtakes *int
			metrics   mytypes.MetricMap
		)
		r := features.Row{Track: run.Track}
		if err := rows.Scan(&idx, &typ, &overtakes, &r.Length, &r.LapPosition,
			&metrics); err != nil {
			return nil, nil, err
		}
		if idx != len(t.Rows) {
			return nil, nil, &model.ConsistencyError{What: "block index", Want: len(t.Rows), Got: idx}
		}
		r.Type = model.SegmentType(typ)
		if overtakes != nil {
			r.Overtakes = *overtakes
		}
		r.Metrics = make([]float64, len(t.MetricColumns))
		for j, name := range t.MetricColumns {
			r.Metrics[j] = metrics[name]
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	types := make([]model.SegmentType, len(t.Rows))
	for i := range t.Rows {
		types[i] = t.Rows[i].Type
	}
	prev, next := blocks.Prev(types), blocks.Next(types)
	for i := range t.Rows {
		t.Rows[i].PrevType = prev[i]
		t.Rows[i].NextType = next[i]
	}
	return run, t, nil
}

// ListRuns returns the stored runs of a track, newest first.
func ListRuns(
	ctx context.Context,
	conn repository.Querier,
	track string,
) ([]*Run, error) {
	rows, err := conn.Query(ctx,
		`select id, track, max_block_length, with_overtakes, log_count, columns, created
		from track_run where track=$1 order by created desc`, track)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Run, error) {
		run := &Run{}
		err := row.Scan(&run.ID, &run.Track, &run.MaxBlockLength, &run.WithOvertakes,
			&run.LogCount, &run.Columns, &run.Created)
		return run, err
	})
}

// DeleteRun removes a run with its blocks, returns number of runs deleted.
func DeleteRun(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from track_run where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
