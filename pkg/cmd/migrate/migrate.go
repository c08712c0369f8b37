package migrate

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/db/migrate"
	"github.com/racingminer/trackblocks/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return startMigration(ctx)
		},
	}
	return cmd
}

func startMigration(ctx context.Context) error {
	// wait for database
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(ctx, postgresAddr, timeout); err != nil {
		return err
	}

	log.Info("Applying embedded migrations", log.String("addr", postgresAddr))
	if err := migrate.MigrateDb(config.DB); err != nil {
		return err
	}
	log.Info("Database is up to date")
	return nil
}
