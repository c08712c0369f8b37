package config

import (
	"errors"
	"fmt"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB              string // connection string for the database
	WaitForServices string // duration to wait for the database to be ready
	LogLevel        string // sets the log level (zap log level values)
	SQLLogLevel     string // sets the log level for sql subsystem
	LogFormat       string // text vs json
	LogConfig       string // path to log config file
)

// Config carries everything an analysis run needs. It is built from the CLI
// values and passed down explicitly.
//
//nolint:lll // readability
type Config struct {
	TrackDir        string    // directory holding <track>.csv and <track>_dynamics.csv
	MaxBlockLength  float64   // upper bound of a block length
	MaxBendRadius   float64   // bends with a larger radius count as straight
	DecayThresholds []float64 // windows of the decayed radius estimators
	DynamicsDriver  string    // only attribute telemetry of this driver if set
	DynamicsLap     int       // lap used for attribution, 0 means all laps (each lap attributed from the track start)
	Fractions       []float64 // lap fractions for partial position variations
	EntropyBins     int       // histogram bins of the entropy metrics
	OutputDir       string    // defaults to the run folder if empty
	Plots           bool      // render heatmaps
	CarPositions    bool      // add the overtake plots with the involved cars
	JSONOutput      bool      // print the json report
	JSONPath        string    // optional jsonpath selecting a part of the report
	Store           bool      // save feature tables to the database
}

// Default returns the values used when no flag is given.
func Default() *Config {
	return &Config{
		TrackDir:        ".",
		MaxBlockLength:  200,
		MaxBendRadius:   1200,
		DecayThresholds: []float64{400, 200, 100, 50},
		DynamicsLap:     1,
		Fractions:       []float64{0.3, 0.5, 1},
		EntropyBins:     30,
		Plots:           true,
	}
}

// Validate checks the numeric settings.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxBlockLength <= 0 {
		errs = append(errs, fmt.Errorf("max block length must be positive, got %v", c.MaxBlockLength))
	}
	if c.MaxBendRadius <= 0 {
		errs = append(errs, fmt.Errorf("max bend radius must be positive, got %v", c.MaxBendRadius))
	}
	if len(c.DecayThresholds) == 0 {
		errs = append(errs, errors.New("at least one decay threshold is required"))
	}
	for _, thr := range c.DecayThresholds {
		if thr <= 0 {
			errs = append(errs, fmt.Errorf("decay threshold must be positive, got %v", thr))
		}
	}
	for _, f := range c.Fractions {
		if f <= 0 || f > 1 {
			errs = append(errs, fmt.Errorf("lap fraction must be in (0,1], got %v", f))
		}
	}
	if c.EntropyBins <= 0 {
		errs = append(errs, fmt.Errorf("entropy bins must be positive, got %v", c.EntropyBins))
	}
	if c.DynamicsLap < 0 {
		errs = append(errs, fmt.Errorf("dynamics lap must not be negative, got %v", c.DynamicsLap))
	}
	return errors.Join(errs...)
}

// OutputFor returns the directory where results of a run folder go.
func (c *Config) OutputFor(runDir string) string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return runDir
}
