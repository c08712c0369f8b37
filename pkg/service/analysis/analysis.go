// Package analysis runs the complete analysis of a run folder: track
// topology, block features with and without overtakes, race statistics,
// entropy, heatmaps and the results file.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/dynamics"
	"github.com/racingminer/trackblocks/pkg/entropy"
	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/overtakes"
	"github.com/racingminer/trackblocks/pkg/race"
	"github.com/racingminer/trackblocks/pkg/render"
	"github.com/racingminer/trackblocks/pkg/track"
	"github.com/racingminer/trackblocks/pkg/utils/cache"
	"github.com/racingminer/trackblocks/pkg/utils/cache/loadercache"
)

// DefaultTrackLength is used for the race statistics when the track file
// is missing.
const DefaultTrackLength = 1000.0

// DefaultTrackCacheTTL is how long a parsed track file is reused.
const DefaultTrackCacheTTL = 10 * time.Minute

var ErrNoLogs = errors.New("no race logs found")

// Store persists finished feature tables.
type Store interface {
	SaveTable(ctx context.Context, t *features.Table, logCount int) error
}

type Service struct {
	cfg      *config.Config
	store    Store
	renderer *render.Renderer
	tracks   cache.Cache[string, model.Track]
	trackTTL time.Duration
	log      *log.Logger
}

type ServiceOption func(s *Service)

func WithStore(store Store) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

func WithRenderer(r *render.Renderer) ServiceOption {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithTrackCacheTTL sets how long parsed track files are reused.
// 0 keeps them until the service is dropped.
func WithTrackCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.trackTTL = ttl
	}
}

func WithLogger(l *log.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{
		cfg:      cfg,
		trackTTL: DefaultTrackCacheTTL,
		log:      log.Default().Named("analysis"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.tracks = loadercache.New(
		loadercache.WithLoader[string, model.Track](ret.loadTrack),
		loadercache.WithExpiration[string, model.Track](ret.trackTTL),
		loadercache.WithLogger[string, model.Track](ret.log.Named("cache")),
	)
	if ret.renderer == nil {
		ret.renderer = render.NewRenderer(render.WithLogger(ret.log.Named("render")))
	}
	return ret, nil
}

// Result collects everything computed for one run folder.
type Result struct {
	Run            string
	Track          string
	Logs           []string
	Drivers        []string
	TrackFound     bool
	TrackLength    float64
	Topology       *track.Summary
	Race           *race.Summary
	Entropy        entropy.Metrics
	Overtakes      *overtakes.Tally
	TotalOvertakes int
	Files          []string
}

// AnalyzeAll analyzes each run folder. A failing folder is reported and the
// next one is analyzed.
func (s *Service) AnalyzeAll(ctx context.Context, runs []string) []*Result {
	ret := []*Result{}
	for _, run := range runs {
		if ctx.Err() != nil {
			break
		}
		res, err := s.AnalyzeRun(ctx, run)
		if err != nil {
			s.log.Error("run skipped", log.String("run", run), log.ErrorField(err))
			continue
		}
		ret = append(ret, res)
	}
	return ret
}

// AnalyzeRun analyzes the race logs of one run folder. Without a track file
// only the race statistics are computed.
func (s *Service) AnalyzeRun(ctx context.Context, runDir string) (*Result, error) {
	runDir = filepath.Clean(runDir)
	l := s.log.With(log.String("run", runDir))
	logs, err := race.ListLogs(runDir)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%s: %w", runDir, ErrNoLogs)
	}
	trackName, err := race.TrackName(logs[0])
	if err != nil {
		return nil, err
	}
	drivers, err := race.Drivers(filepath.Join(runDir, logs[0]))
	if err != nil {
		return nil, fmt.Errorf("read drivers: %w", err)
	}
	outDir := s.cfg.OutputFor(runDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	res := &Result{
		Run:         runDir,
		Track:       trackName,
		Logs:        logs,
		Drivers:     drivers,
		TrackLength: DefaultTrackLength,
	}
	l.Info("analyzing run",
		log.String("track", trackName),
		log.Int("logs", len(logs)),
		log.Int("drivers", len(drivers)))

	base, err := s.readTrack(ctx, trackName)
	var missing *model.MissingInputError
	switch {
	case errors.As(err, &missing):
		l.Warn("track data not found, continuing with race statistics only",
			log.String("path", missing.Path))
	case err != nil:
		return nil, fmt.Errorf("track %s: %w", trackName, err)
	default:
		res.TrackFound = true
		res.TrackLength = base.Length
		res.Topology = track.Summarize(base)
		if err := s.analyzeBlocks(ctx, res, base, runDir, outDir); err != nil {
			return nil, err
		}
	}

	res.Race = s.analyzeRace(runDir, res)
	path, err := WriteResults(outDir, res)
	if err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	res.Files = append(res.Files, path)
	l.Info("run done", log.Int("files", len(res.Files)), log.Int("overtakes", res.TotalOvertakes))
	return res, nil
}

// readTrack returns a private copy of the cached track.
func (s *Service) readTrack(ctx context.Context, name string) (*model.Track, error) {
	t, err := s.tracks.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (s *Service) loadTrack(_ context.Context, name string) (*model.Track, error) {
	r := track.NewReader(
		track.WithMaxBendRadius(s.cfg.MaxBendRadius),
		track.WithLogger(s.log.Named("track")))
	return r.ReadFile(track.FileName(s.cfg.TrackDir, name))
}

// analyzeBlocks builds the feature tables. Every log gets its own copy of the
// layout, the merged counts are applied to a fresh copy.
//
//nolint:funlen // sequence of steps
func (s *Service) analyzeBlocks(
	ctx context.Context,
	res *Result,
	base *model.Track,
	runDir, outDir string,
) error {
	layout, err := blocks.Partition(base, s.cfg.MaxBlockLength)
	if err != nil {
		return err
	}
	if err := s.attributeDynamics(layout); err != nil {
		return err
	}
	res.Entropy = entropy.Compute(layout.Track, s.cfg.EntropyBins)

	svc := features.NewService(features.WithThresholds(s.cfg.DecayThresholds))
	plain, err := svc.Build(layout.Clone(), false)
	if err != nil {
		return err
	}
	path, err := features.WriteFile(outDir, plain)
	if err != nil {
		return fmt.Errorf("write feature file: %w", err)
	}
	res.Files = append(res.Files, path)
	if s.cfg.Plots {
		files, err := s.plotMetrics(layout, plain, filepath.Join(outDir, "track"))
		if err != nil {
			return err
		}
		res.Files = append(res.Files, files...)
	}

	parser := overtakes.NewParser()
	counter := overtakes.NewCounter()
	tallies := make([]*overtakes.Tally, 0, len(res.Logs))
	allCars := []overtakes.CarPosition{}
	for i, name := range res.Logs {
		s.log.Info("counting overtakes",
			log.String("log", name), log.Int("index", i+1), log.Int("of", len(res.Logs)))
		events, err := parser.ReadFile(filepath.Join(runDir, name))
		if err != nil {
			s.log.Warn("log skipped", log.String("log", name), log.ErrorField(err))
			continue
		}
		perLog := layout.Clone()
		perLog.Track.ResetOvertakes()
		counter.Count(perLog, events)
		tally := overtakes.TallyOf(perLog)
		tallies = append(tallies, tally)
		if s.cfg.Plots {
			p := filepath.Join(outDir, "overtakes", strings.TrimSuffix(name, ".csv")+render.Extension)
			if err := s.renderer.Counts(perLog, tally.Blocks, "Number of overtakes", p); err != nil {
				return err
			}
			res.Files = append(res.Files, p)
		}
	}
	if len(tallies) == 0 {
		s.log.Warn("no overtake data, feature file with overtakes not written")
		return nil
	}
	merged, err := overtakes.MergeAll(tallies...)
	if err != nil {
		return err
	}
	res.Overtakes = merged
	res.TotalOvertakes = merged.Total()

	all := layout.Clone()
	if err := overtakes.Apply(all, merged); err != nil {
		return err
	}
	if s.cfg.Plots && len(tallies) > 1 {
		base := filepath.Join(outDir, "overtakes", "overtakes")
		if err := s.renderer.Counts(all, merged.Blocks, overtakesTitle, base+render.Extension); err != nil {
			return err
		}
		res.Files = append(res.Files, base+render.Extension)
		if s.cfg.CarPositions {
			p := base + render.CarsSuffix + render.Extension
			if err := s.renderer.CountsWithCars(all, merged.Blocks, allCars, overtakesTitle, p); err != nil {
				return err
			}
			res.Files = append(res.Files, p)
		}
	}
	withOvertakes, err := svc.Build(all, true)
	if err != nil {
		return err
	}
	path, err = features.WriteFile(outDir, withOvertakes)
	if err != nil {
		return fmt.Errorf("write feature file: %w", err)
	}
	res.Files = append(res.Files, path)

	if s.cfg.Store && s.store != nil {
		for _, t := range []*features.Table{plain, withOvertakes} {
			if err := s.store.SaveTable(ctx, t, len(tallies)); err != nil {
				return fmt.Errorf("store feature table: %w", err)
			}
		}
	}
	return nil
}

const overtakesTitle = "Number of overtakes"

// plotOvertakes writes the overtake heatmap of one log and, if enabled, the
// plot with the cars involved. It returns the written files and the cars.
func (s *Service) plotOvertakes(
	l *blocks.Layout,
	tally *overtakes.Tally,
	parser *overtakes.Parser,
	logPath, base string,
) ([]string, []overtakes.CarPosition, error) {
	files := []string{base + render.Extension}
	if err := s.renderer.Counts(l, tally.Blocks, overtakesTitle, files[0]); err != nil {
		return nil, nil, err
	}
	if !s.cfg.CarPositions {
		return files, nil, nil
	}
	cars, err := parser.Positions(l.Track, logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("car positions: %w", err)
	}
	p := base + render.CarsSuffix + render.Extension
	if err := s.renderer.CountsWithCars(l, tally.Blocks, cars, overtakesTitle, p); err != nil {
		return nil, nil, err
	}
	return append(files, p), cars, nil
}

// attributeDynamics reads the telemetry file of the track. A missing file
// leaves all distributions at their zero default.
func (s *Service) attributeDynamics(layout *blocks.Layout) error {
	_, err := dynamics.ForConfig(s.cfg, s.log.Named("dynamics")).
		AttributeTrack(layout.Track, s.cfg.TrackDir)
	return err
}

func (s *Service) plotMetrics(layout *blocks.Layout, t *features.Table, dir string) ([]string, error) {
	files := []string{}
	plot := func(values []float64, title, name string) error {
		p := filepath.Join(dir, name+render.Extension)
		if err := s.renderer.Heatmap(layout, values, title, p); err != nil {
			return err
		}
		files = append(files, p)
		return nil
	}
	alternating := make([]float64, layout.Len())
	for i := range alternating {
		alternating[i] = float64(i % 2)
	}
	if err := plot(alternating, "", "blocks"); err != nil {
		return nil, err
	}
	if err := plot(layout.Lengths(), "Block lengths", "block-lengths"); err != nil {
		return nil, err
	}
	for _, col := range t.MetricColumns {
		values, _ := t.Metric(col)
		if err := plot(values, col, Slug(col)); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Slug turns a column name into a file name, e.g. "Previous Block radius"
// becomes "previous-block-radius".
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (s *Service) analyzeRace(runDir string, res *Result) *race.Summary {
	opts := race.Options{
		Drivers:     res.Drivers,
		TrackLength: res.TrackLength,
		Fractions:   s.cfg.Fractions,
	}
	results := []*race.LogResult{}
	for _, name := range res.Logs {
		r, err := race.AnalyzeLogFile(filepath.Join(runDir, name), opts)
		if err != nil {
			s.log.Warn("log skipped", log.String("log", name), log.ErrorField(err))
			continue
		}
		results = append(results, r)
	}
	return race.Summarize(results, s.cfg.Fractions)
}
