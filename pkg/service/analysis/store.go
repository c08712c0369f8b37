package analysis

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/features"
	blocksrepos "github.com/racingminer/trackblocks/pkg/repository/blocks"
)

// DBStore saves feature tables into postgres, one transaction per table.
type DBStore struct {
	pool *pgxpool.Pool
	log  *log.Logger
}

func NewDBStore(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool, log: log.Default().Named("analysis.store")}
}

func (s *DBStore) SaveTable(ctx context.Context, t *features.Table, logCount int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		run, err := blocksrepos.SaveRun(ctx, tx, t, logCount)
		if err != nil {
			return err
		}
		s.log.Info("feature table stored",
			log.String("id", run.ID.String()),
			log.String("track", run.Track),
			log.Bool("withOvertakes", run.WithOvertakes),
			log.Int("blocks", len(t.Rows)))
		return nil
	})
}
