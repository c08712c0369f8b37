// Package render draws per-block metrics over the track shape.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/blocks"
	"github.com/racingminer/trackblocks/pkg/model"
	"github.com/racingminer/trackblocks/pkg/overtakes"
)

const Extension = ".svg"

// CarsSuffix is appended to the overtake plot name for the plot with cars.
const CarsSuffix = "-with-cars"

type Renderer struct {
	width  vg.Length
	height vg.Length
	log    *log.Logger
}

type RendererOption func(r *Renderer)

func WithSize(width, height vg.Length) RendererOption {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

func WithLogger(l *log.Logger) RendererOption {
	return func(r *Renderer) {
		r.log = l
	}
}

func NewRenderer(opts ...RendererOption) *Renderer {
	ret := &Renderer{
		width:  8 * vg.Inch,
		height: 8 * vg.Inch,
		log:    log.Default().Named("render"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Heatmap draws every segment as a polygon colored by the value of its block.
// values must be indexed by block. The file format follows the path extension.
func (r *Renderer) Heatmap(l *blocks.Layout, values []float64, title, path string) error {
	if len(values) != l.Len() {
		return &model.ConsistencyError{What: "heatmap values", Want: l.Len(), Got: len(values)}
	}
	p, err := r.heatmap(l, values, title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("save heatmap %s: %w", path, err)
	}
	r.log.Debug("heatmap written", log.String("title", title), log.String("path", path))
	return nil
}

// Counts is Heatmap for integer per-block values such as overtakes.
func (r *Renderer) Counts(l *blocks.Layout, counts []int, title, path string) error {
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	return r.Heatmap(l, values, title, path)
}

// CountsWithCars draws Counts and marks the cars of every overtake on top:
// overtakers blue, overtaken cars black, the human player in green and grey.
func (r *Renderer) CountsWithCars(
	l *blocks.Layout,
	counts []int,
	cars []overtakes.CarPosition,
	title, path string,
) error {
	if len(counts) != l.Len() {
		return &model.ConsistencyError{What: "overtake counts", Want: l.Len(), Got: len(counts)}
	}
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	p, err := r.heatmap(l, values, title)
	if err != nil {
		return err
	}
	groups := []struct {
		name      string
		c         color.Color
		overtaker bool
		human     bool
	}{
		{"Overtaker", color.RGBA{R: 0x55, G: 0x55, B: 0xff, A: 255}, true, false},
		{"Overtaken", color.Black, false, false},
		{"Human overtaker", color.RGBA{G: 0x77, A: 255}, true, true},
		{"Human overtaken", color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 255}, false, true},
	}
	for _, g := range groups {
		xys := plotter.XYs{}
		for _, c := range cars {
			if c.Overtaker == g.overtaker && c.Human() == g.human {
				xys = append(xys, plotter.XY{X: c.X, Y: c.Y})
			}
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("%s marks: %w", g.name, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{Color: g.c, Radius: vg.Points(3), Shape: draw.PlusGlyph{}}
		p.Add(sc)
		p.Legend.Add(g.name, sc)
	}
	p.Legend.Top = false
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("save overtake plot %s: %w", path, err)
	}
	r.log.Debug("overtake plot written", log.String("path", path), log.Int("cars", len(cars)))
	return nil
}

func (r *Renderer) heatmap(l *blocks.Layout, values []float64, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	norm := Normalize(values)
	for i := range l.Track.Segments {
		seg := &l.Track.Segments[i]
		poly, err := plotter.NewPolygon(Outline(seg))
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		c := Ramp(norm[seg.Block])
		poly.Color = c
		poly.LineStyle.Color = c
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)
	}
	return p, nil
}

// Outline is the segment polygon SL, SR, ER, EL in the xy plane.
func Outline(seg *model.Segment) plotter.XYs {
	return plotter.XYs{
		{X: seg.StartLeft.X, Y: seg.StartLeft.Y},
		{X: seg.StartRight.X, Y: seg.StartRight.Y},
		{X: seg.EndRight.X, Y: seg.EndRight.Y},
		{X: seg.EndLeft.X, Y: seg.EndLeft.Y},
	}
}

// Normalize maps values linearly onto [0,1]. A constant input maps to 0.
func Normalize(values []float64) []float64 {
	ret := make([]float64, len(values))
	if len(values) == 0 {
		return ret
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return ret
	}
	for i, v := range values {
		ret[i] = (v - lo) / span
	}
	return ret
}

// Ramp goes from green (0) to red (1).
func Ramp(v float64) color.Color {
	v = math.Max(0, math.Min(1, v))
	return color.RGBA{
		R: uint8(math.Round(255 * v)),
		G: uint8(math.Round(255 * (1 - v))),
		A: 255,
	}
}
