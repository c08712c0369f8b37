package dynamics

import (
	"errors"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/config"
	"github.com/racingminer/trackblocks/pkg/model"
)

// ForConfig builds the reader for the telemetry settings of cfg.
func ForConfig(cfg *config.Config, l *log.Logger) *Reader {
	opts := []ReaderOption{WithLap(cfg.DynamicsLap), WithLogger(l)}
	if cfg.DynamicsDriver != "" {
		opts = append(opts, WithDriver(cfg.DynamicsDriver))
	}
	return NewReader(opts...)
}

// AttributeTrack reads the telemetry file of t from trackDir and attributes
// its samples. A missing file or a file without a valid sample is reported
// and leaves every distribution at zero.
func (r *Reader) AttributeTrack(t *model.Track, trackDir string) (int, error) {
	path := FileName(trackDir, t.Name)
	samples, err := r.ReadFile(path)
	var missing *model.MissingInputError
	if errors.As(err, &missing) {
		r.l.Warn("dynamics data not found, dynamics columns stay zero", log.String("path", missing.Path))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		r.l.Warn("no valid dynamics samples, dynamics columns stay zero",
			log.String("path", path), log.Int("lap", r.lap), log.String("driver", r.driver))
		return 0, nil
	}
	n := Attribute(t, samples)
	r.l.Debug("dynamics attributed", log.String("path", path), log.Int("samples", n))
	return n, nil
}
