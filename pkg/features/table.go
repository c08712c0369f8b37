// Package features builds the per-block feature table of a track.
package features

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/dynamics"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/overtakes"
	"github.com/racingminer/trackblocks/pkg/radius"
)

// fixed columns around the metric columns
const (
	ColTrack       = "Track"
	ColType        = "Type"
	ColPrevType    = "PrevType"
	ColNextType    = "NextType"
	ColOvertakes   = "Overtakes"
	ColLength      = "Length"
	ColLapPosition = "Lap position"
)

var leadingColumns = []string{ColTrack, ColType, ColPrevType, ColNextType, ColOvertakes, ColLength}

var distributionStats = []struct {
	suffix string
	get    func(d model.Distribution) float64
}{
	{"Avg", func(d model.Distribution) float64 { return d.Mean }},
	{"Std", func(d model.Distribution) float64 { return d.Std }},
	{"Q1", func(d model.Distribution) float64 { return d.Q1 }},
	{"Q2", func(d model.Distribution) float64 { return d.Q2 }},
	{"Q3", func(d model.Distribution) float64 { return d.Q3 }},
}

// Row is one block of the feature table.
type Row struct {
	Track       string
	Type        model.SegmentType
	PrevType    model.SegmentType
	NextType    model.SegmentType
	Overtakes   int
	Length      float64
	Metrics     []float64 // aligned with Table.MetricColumns
	LapPosition float64
}

type Table struct {
	Track          string
	MaxBlockLength float64
	// WithOvertakes is false for tables written without overtake counts.
	WithOvertakes bool
	MetricColumns []string
	Rows          []Row
}

// Header returns all column names in file order.
func (t *Table) Header() []string {
	ret := slices.Clone(leadingColumns)
	ret = append(ret, t.MetricColumns...)
	return append(ret, ColLapPosition)
}

// Metric returns the values of a metric column indexed by block.
func (t *Table) Metric(name string) ([]float64, bool) {
	idx := slices.Index(t.MetricColumns, name)
	if idx < 0 {
		return nil, false
	}
	ret := make([]float64, len(t.Rows))
	for i := range t.Rows {
		ret[i] = t.Rows[i].Metrics[idx]
	}
	return ret, true
}

// OvertakeCounts returns the overtakes per block.
func (t *Table) OvertakeCounts() []int {
	ret := make([]int, len(t.Rows))
	for i := range t.Rows {
		ret[i] = t.Rows[i].Overtakes
	}
	return ret
}

// Values returns the named values of a row, used for persistence and reports.
func (t *Table) Values(i int) map[string]any {
	r := &t.Rows[i]
	ret := map[string]any{
		ColType:        int(r.Type),
		ColPrevType:    int(r.PrevType),
		ColNextType:    int(r.NextType),
		ColLength:      r.Length,
		ColLapPosition: r.LapPosition,
	}
	if t.WithOvertakes {
		ret[ColOvertakes] = r.Overtakes
	}
	for j, name := range t.MetricColumns {
		ret[name] = r.Metrics[j]
	}
	return ret
}

// RadiusColumn names the decayed estimator column of a threshold,
// e.g. PrevRad400.
func RadiusColumn(prefix string, thr float64) string {
	return prefix + "Rad" + strconv.FormatFloat(thr, 'f', -1, 64)
}

type series struct {
	name   string
	values []float64
}

func withNeighbors(name, prevName, nextName string, values []float64) []series {
	return []series{
		{name, values},
		{prevName, blocks.Prev(values)},
		{nextName, blocks.Next(values)},
	}
}

type Service struct {
	thresholds []float64
	l          *log.Logger
}

type ServiceOption func(s *Service)

// WithThresholds sets the windows of the decayed radius estimators.
func WithThresholds(thresholds []float64) ServiceOption {
	return func(s *Service) {
		s.thresholds = slices.Clone(thresholds)
	}
}

func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		thresholds: slices.Clone(radius.DefaultThresholds),
		l:          log.Default().Named("features"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build computes all block metrics of a layout whose segments already carry
// their dynamics samples and overtake counters. The block metrics of l are
// updated as a side effect.
func (s *Service) Build(l *blocks.Layout, withOvertakes bool) (*Table, error) {
	if l.Len() == 0 {
		return nil, fmt.Errorf("layout of %s has no blocks", l.Track.Name)
	}
	inv := radius.InverseRadiuses(l)
	radius.Apply(l, inv)
	decayed, err := radius.DecayedAll(l, s.thresholds)
	if err != nil {
		return nil, err
	}
	grades := l.Grades()
	widths := l.Widths()
	dynamics.AggregateAll(l)
	counts := overtakes.BlockCounts(l)
	for b := range l.Blocks {
		l.Blocks[b].Metrics.Grade = grades[b]
		l.Blocks[b].Metrics.Width = widths[b]
	}

	cols := withNeighbors("Block radius", "Previous Block radius", "Next Block radius", inv)
	cols = append(cols,
		series{"Previous radiuses mean", radius.PrevWeightedMeans(inv)},
		series{"Next radiuses mean", radius.NextWeightedMeans(inv)},
	)
	for _, d := range decayed {
		cols = append(cols,
			series{RadiusColumn("Prev", d.Threshold), d.Prev},
			series{RadiusColumn("Next", d.Threshold), d.Next},
		)
	}
	cols = append(cols, withNeighbors("Grade", "PrevGrade", "NextGrade", grades)...)
	cols = append(cols, withNeighbors("Width", "PrevWidth", "NextWidth", widths)...)
	for _, f := range model.DynamicsFields {
		for _, st := range distributionStats {
			values := make([]float64, l.Len())
			for b := range l.Blocks {
				values[b] = st.get(l.Blocks[b].Metrics.Dynamics[f])
			}
			name := f.String() + st.suffix
			cols = append(cols, withNeighbors(name, "Prev"+name, "Next"+name, values)...)
		}
	}

	t := &Table{
		Track:          l.Track.Name,
		MaxBlockLength: l.MaxBlockLength,
		WithOvertakes:  withOvertakes,
		MetricColumns:  make([]string, len(cols)),
		Rows:           make([]Row, l.Len()),
	}
	for j := range cols {
		t.MetricColumns[j] = cols[j].name
	}
	types := l.Types()
	prevTypes := blocks.Prev(types)
	nextTypes := blocks.Next(types)
	lengths := l.Lengths()
	lapPos := l.LapPositions()
	for b := range t.Rows {
		row := Row{
			Track:       l.Track.Name,
			Type:        types[b],
			PrevType:    prevTypes[b],
			NextType:    nextTypes[b],
			Length:      lengths[b],
			Metrics:     make([]float64, len(cols)),
			LapPosition: lapPos[b],
		}
		if withOvertakes {
			row.Overtakes = counts[b]
		}
		for j := range cols {
			row.Metrics[j] = cols[j].values[b]
		}
		t.Rows[b] = row
	}
	s.l.Debug("feature table built",
		log.String("track", t.Track),
		log.Int("blocks", len(t.Rows)),
		log.Int("columns", len(t.Header())))
	return t, nil
}
