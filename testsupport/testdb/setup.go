package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/racingminer/trackblocks/testsupport/tcpostgres"
)

// InitTestDb returns a migrated, empty database. The test is skipped with
// -short since it needs docker or TESTDB_URL.
func InitTestDb(t testing.TB) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("database test skipped in short mode")
	}
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDb()
	} else {
		pool = tcpg.SetupTestDb()
	}
	if err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		tcpg.ClearAllTables(pool)
		return nil
	}); err != nil {
		t.Fatalf("initTestDb: %v\n", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
