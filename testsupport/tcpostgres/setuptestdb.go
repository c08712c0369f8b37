//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/racingminer/trackblocks/pkg/db/migrate"
	database "github.com/racingminer/trackblocks/pkg/db/postgres"
)

// SetupTestDb starts (or reuses) a postgres container and migrates it.
// TESTDB_IMAGE overrides the postgres image.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := SetupPostgres(ctx,
		WithImage(os.Getenv("TESTDB_IMAGE")),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("trackblocks-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.ConnectionURL(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupWithURL(ctx, dbURL)
}

// SetupExternalTestDb uses the database given by TESTDB_URL.
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithURL(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupWithURL(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearBlockFeatureTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from block_feature")
}

func ClearTrackRunTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from track_run")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearBlockFeatureTable(pool)
	ClearTrackRunTable(pool)
}
