// Package common holds flags and setup shared by the subcommands.
package common

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/db/postgres"
	"github.com/racingminer/trackblocks/pkg/utils"
)

// AddTrackFlags binds the flags that control reading and partitioning a
// track to cfg.
func AddTrackFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVarP(&cfg.TrackDir,
		"track-dir",
		"t",
		cfg.TrackDir,
		"directory with <track>.csv and <track>_dynamics.csv")
	fs.Float64VarP(&cfg.MaxBlockLength,
		"max-block-len",
		"B",
		cfg.MaxBlockLength,
		"the maximum block length")
	fs.Float64Var(&cfg.MaxBendRadius,
		"max-bend-radius",
		cfg.MaxBendRadius,
		"bends with a radius of at least this value count as straights")
	fs.Float64SliceVar(&cfg.DecayThresholds,
		"decay-thresholds",
		cfg.DecayThresholds,
		"distance windows of the decayed radius estimators")
	fs.StringVar(&cfg.DynamicsDriver,
		"dynamics-driver",
		cfg.DynamicsDriver,
		"only use telemetry rows of this driver")
	fs.IntVar(&cfg.DynamicsLap,
		"dynamics-lap",
		cfg.DynamicsLap,
		"lap of the telemetry rows used for the dynamics (0: all laps, each one attributed from the track start)")
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger replaces the default logger according to the log flags.
func SetupLogger() error {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	level := parseLogLevel(config.LogLevel, log.InfoLevel)
	if config.LogConfig != "" {
		cfg, err := log.LoadConfig(config.LogConfig)
		if err != nil {
			return err
		}
		opts = append(opts, log.WithConfig(cfg, level))
		level = cfg.MinLevel(level)
	}

	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, level, opts...)
	default:
		logger = log.DevLogger(os.Stderr, level, opts...)
	}
	log.ResetDefault(logger)
	return nil
}

// Connect waits for the database of config.DB and opens a pool. SQL
// statements are traced when the sql log level is debug.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	if err := utils.WaitForTCP(ctx, utils.ExtractFromDBURL(config.DB), timeout); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	opts := []postgres.PoolConfigOption{}
	if parseLogLevel(config.SQLLogLevel, log.InfoLevel) == log.DebugLevel {
		opts = append(opts, postgres.WithTracer(log.Default().Named("sql")))
	}
	return postgres.InitWithURL(ctx, config.DB, opts...)
}
