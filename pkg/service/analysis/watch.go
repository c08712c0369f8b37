package analysis

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/race"
)

// DefaultSettle is the quiet time after the last log change before a
// rerun starts. The simulator writes logs incrementally.
const DefaultSettle = 2 * time.Second

// Watch analyzes runDir once and again whenever a race log is created or
// written, until ctx is done. onResult receives every finished result.
//
//nolint:funlen // event loop
func (s *Service) Watch(
	ctx context.Context,
	runDir string,
	settle time.Duration,
	onResult func(res *Result),
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(runDir); err != nil {
		return err
	}
	l := s.log.Named("watch").With(log.String("run", runDir))

	run := func() {
		res, err := s.AnalyzeRun(ctx, runDir)
		if err != nil {
			l.Error("analysis failed", log.ErrorField(err))
			return
		}
		if onResult != nil {
			onResult(res)
		}
	}
	run()

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Info("context done, stopping watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				l.Info("watcher events channel closed, stopping watch")
				return nil
			}
			if !race.IsLogName(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Write == fsnotify.Write {

				l.Debug("log change detected", log.String("file", event.Name))
				timer.Reset(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				l.Info("watcher errors channel closed, stopping watch")
				return nil
			}
			l.Error("watcher error", log.ErrorField(err))
		case <-timer.C:
			l.Info("logs changed, analyzing again")
			// track files may have been exported again together with the logs
			s.tracks.InvalidateAll(ctx)
			run()
		}
	}
}
