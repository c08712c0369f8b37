package blocks

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/racingminer/trackblocks/log"
	blockspkg "github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/cmd/common"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/dynamics"
	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/track"
)

func NewBlocksCmd() *cobra.Command {
	cfg := config.Default()
	var outDir string
	cmd := &cobra.Command{
		Use:   "blocks <track>",
		Short: "writes the block feature table of a track without overtakes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := BuildTable(cfg, args[0])
			if err != nil {
				return err
			}
			if outDir == "" {
				return features.Encode(os.Stdout, t)
			}
			path, err := features.WriteFile(outDir, t)
			if err != nil {
				return err
			}
			log.Info("feature file written", log.String("path", path))
			return nil
		},
	}
	common.AddTrackFlags(cmd.Flags(), cfg)
	cmd.Flags().StringVarP(&outDir,
		"output-dir",
		"o",
		"",
		"write the feature file into this directory instead of stdout")
	return cmd
}

// BuildTable reads a track with its telemetry and computes the feature table
// without overtakes.
func BuildTable(cfg *config.Config, trackName string) (*features.Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t, err := track.NewReader(track.WithMaxBendRadius(cfg.MaxBendRadius)).
		ReadFile(track.FileName(cfg.TrackDir, trackName))
	if err != nil {
		return nil, err
	}
	layout, err := blockspkg.Partition(t, cfg.MaxBlockLength)
	if err != nil {
		return nil, err
	}
	if _, err := dynamics.ForConfig(cfg, log.Default().Named("dynamics")).
		AttributeTrack(layout.Track, cfg.TrackDir); err != nil {
		return nil, fmt.Errorf("dynamics: %w", err)
	}
	return features.NewService(features.WithThresholds(cfg.DecayThresholds)).Build(layout, false)
}
