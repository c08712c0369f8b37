package analyze

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/cmd/common"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/service/analysis"
)

type options struct {
	cfg    *config.Config
	noPlot bool
	watch  bool
	settle time.Duration
}

func NewAnalyzeCmd() *cobra.Command {
	opts := &options{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:   "analyze <run folder>...",
		Short: "analyzes the race logs of run folders",
		Long: `Analyzes every run folder: track topology, block feature files with and
without overtakes, position variations, gaps, entropy metrics and heatmaps.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}
	common.AddTrackFlags(cmd.Flags(), opts.cfg)
	cmd.Flags().StringVarP(&opts.cfg.OutputDir,
		"output-dir",
		"o",
		"",
		"write results here instead of into the run folder")
	cmd.Flags().BoolVar(&opts.noPlot,
		"no-plots",
		false,
		"skip heatmap generation")
	cmd.Flags().BoolVar(&opts.cfg.CarPositions,
		"car-positions",
		false,
		"also plot the overtakes with the positions of the involved cars")
	cmd.Flags().BoolVar(&opts.cfg.JSONOutput,
		"json-output",
		false,
		"print the raw metrics as json")
	cmd.Flags().StringVar(&opts.cfg.JSONPath,
		"json-path",
		"",
		"jsonpath expression selecting a part of the json output")
	cmd.Flags().IntVar(&opts.cfg.EntropyBins,
		"entropy-bins",
		opts.cfg.EntropyBins,
		"number of histogram bins of the entropy metrics")
	cmd.Flags().Float64SliceVar(&opts.cfg.Fractions,
		"lap-fractions",
		opts.cfg.Fractions,
		"lap fractions for the start phase position variations")
	cmd.Flags().BoolVar(&opts.cfg.Store,
		"store",
		false,
		"save the feature tables to the database")
	cmd.Flags().BoolVarP(&opts.watch,
		"watch",
		"w",
		false,
		"analyze again whenever a new race log appears (single run folder)")
	cmd.Flags().DurationVar(&opts.settle,
		"settle",
		analysis.DefaultSettle,
		"quiet time after the last log change before analyzing again")
	return cmd
}

func run(ctx context.Context, opts *options, runs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.cfg
	cfg.Plots = !opts.noPlot
	if opts.watch && len(runs) != 1 {
		return fmt.Errorf("watch mode needs exactly one run folder, got %d", len(runs))
	}

	svcOpts := []analysis.ServiceOption{}
	if cfg.Store {
		pool, err := common.Connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		svcOpts = append(svcOpts, analysis.WithStore(analysis.NewDBStore(pool)))
	}
	svc, err := analysis.NewService(cfg, svcOpts...)
	if err != nil {
		return err
	}

	if opts.watch {
		return svc.Watch(ctx, runs[0], opts.settle, func(res *analysis.Result) {
			printReport(cfg, res)
		})
	}
	results := svc.AnalyzeAll(ctx, runs)
	for _, res := range results {
		printReport(cfg, res)
	}
	if len(results) == 0 {
		return fmt.Errorf("none of %d run folders could be analyzed", len(runs))
	}
	return nil
}

func printReport(cfg *config.Config, res *analysis.Result) {
	if !cfg.JSONOutput {
		return
	}
	out, err := analysis.NewReport(res).JSON(cfg.JSONPath)
	if err != nil {
		log.Error("json output", log.ErrorField(err))
		return
	}
	fmt.Println(out)
}
