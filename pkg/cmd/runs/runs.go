// Package runs holds the subcommands for feature tables saved with
// analyze --store.
package runs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/cmd/common"
	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/repository"
	blocksrepos "github.com/racingminer/trackblocks/pkg/repository/blocks"
)

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "commands for stored feature tables",
	}
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <track>",
		Short: "lists the stored runs of a track, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConn(cmd, func(ctx context.Context, conn repository.Querier) error {
				return List(ctx, conn, args[0], os.Stdout)
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "writes a stored feature table to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.FromString(args[0])
			if err != nil {
				return fmt.Errorf("run id: %w", err)
			}
			return withConn(cmd, func(ctx context.Context, conn repository.Querier) error {
				return Show(ctx, conn, id, os.Stdout)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "deletes a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.FromString(args[0])
			if err != nil {
				return fmt.Errorf("run id: %w", err)
			}
			return withConn(cmd, func(ctx context.Context, conn repository.Querier) error {
				return Delete(ctx, conn, id)
			})
		},
	}
}

func withConn(cmd *cobra.Command, fn func(ctx context.Context, conn repository.Querier) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := common.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

// List writes one line per stored run of track.
func List(ctx context.Context, conn repository.Querier, track string, w io.Writer) error {
	runs, err := blocksrepos.ListRuns(ctx, conn, track)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\tlogs=%d\tovertakes=%t\n",
			r.ID, r.Created.Format(time.RFC3339), r.Track,
			features.FormatShort(r.MaxBlockLength), r.LogCount, r.WithOvertakes); err != nil {
			return err
		}
	}
	return nil
}

// Show writes the stored table in the feature file format.
func Show(ctx context.Context, conn repository.Querier, id uuid.UUID, w io.Writer) error {
	_, t, err := blocksrepos.LoadRun(ctx, conn, id)
	if err != nil {
		return err
	}
	return features.Encode(w, t)
}

// Delete removes a run. An unknown id is reported as ErrRunNotFound.
func Delete(ctx context.Context, conn repository.Querier, id uuid.UUID) error {
	n, err := blocksrepos.DeleteRun(ctx, conn, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return blocksrepos.ErrRunNotFound
	}
	log.Default().Named("runs").Info("run deleted", log.String("id", id.String()))
	return nil
}
