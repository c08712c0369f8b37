package track

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/track"
)

func NewTrackCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "track <track>",
		Short: "prints the topology summary of a track as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := Summary(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.TrackDir,
		"track-dir",
		"t",
		cfg.TrackDir,
		"directory with <track>.csv")
	cmd.Flags().Float64Var(&cfg.MaxBendRadius,
		"max-bend-radius",
		cfg.MaxBendRadius,
		"bends with a radius of at least this value count as straights")
	return cmd
}

// Summary reads a track and renders its topology summary.
func Summary(cfg *config.Config, trackName string) (string, error) {
	t, err := track.NewReader(track.WithMaxBendRadius(cfg.MaxBendRadius)).
		ReadFile(track.FileName(cfg.TrackDir, trackName))
	if err != nil {
		return "", err
	}
	return oj.JSON(track.Summarize(t), &ojg.Options{Indent: 2, UseTags: true}), nil
}
