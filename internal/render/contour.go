package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strings"

	"github.com/banshee-data/heatgrid/internal/field"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	pdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// maxContourLevels bounds the number of iso-lines generated from an interval.
const maxContourLevels = 64

// ContourOverlay draws iso-lines of the raw field on top of a coloured
// frame. Levels are in physical units; when Levels is empty, lines are drawn
// every Interval units across the field's range.
type ContourOverlay struct {
	Levels   []float64
	Interval float64
	Unit     string
	Color    color.RGBA
	Labels   bool
}

// LevelsFor returns the sorted iso-levels that fall inside the field's range.
func (o *ContourOverlay) LevelsFor(f *field.ScalarField) []float64 {
	lo, hi := f.Range()
	var levels []float64
	switch {
	case len(o.Levels) > 0:
		for _, l := range o.Levels {
			if l >= lo && l <= hi {
				levels = append(levels, l)
			}
		}
	case o.Interval > 0:
		for k := math.Ceil(lo / o.Interval); k*o.Interval <= hi && len(levels) < maxContourLevels; k++ {
			levels = append(levels, k*o.Interval)
		}
	}
	sort.Float64s(levels)
	out := levels[:0]
	for i, l := range levels {
		if i == 0 || l != levels[i-1] {
			out = append(out, l)
		}
	}
	return out
}

// Draw renders the iso-lines of raw onto dst. dst must have the field's size.
func (o *ContourOverlay) Draw(dst *image.RGBA, raw *field.ScalarField) error {
	if b := dst.Bounds(); b.Dx() != raw.W || b.Dy() != raw.H {
		return fmt.Errorf("contour: frame is %dx%d, field is %dx%d", b.Dx(), b.Dy(), raw.W, raw.H)
	}
	levels := o.LevelsFor(raw)
	if len(levels) == 0 {
		return nil
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent
	p.X.Padding = 0
	p.Y.Padding = 0

	c := plotter.NewContour(rasterGrid{raw}, levels, solidPalette{o.Color})
	c.LineStyles = []pdraw.LineStyle{{Color: o.Color, Width: vg.Points(1)}}
	// Keep every level inside [Min, Max] so none is drawn as under/overflow.
	c.Min = levels[0] - 1
	c.Max = levels[len(levels)-1] + 1
	p.Add(c)

	if o.Labels {
		l, err := o.labels(raw, levels)
		if err != nil {
			return fmt.Errorf("contour labels: %w", err)
		}
		if l != nil {
			p.Add(l)
		}
	}

	p.X.Min, p.X.Max = 0, float64(raw.W)
	p.Y.Min, p.Y.Max = 0, float64(raw.H)

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(raw.W), vg.Length(raw.H)),
		vgimg.UseDPI(72),
		vgimg.UseBackgroundColor(color.Transparent),
	)
	p.Draw(pdraw.New(canvas))
	draw.Draw(dst, dst.Bounds(), canvas.Image(), image.Point{}, draw.Over)
	return nil
}

// labels places one "<level> <unit>" label where each iso-line crosses the
// middle row, or the middle column if it never crosses the row.
func (o *ContourOverlay) labels(raw *field.ScalarField, levels []float64) (*plotter.Labels, error) {
	var xyl plotter.XYLabels
	for _, level := range levels {
		x, y, ok := crossing(raw, level)
		if !ok {
			continue
		}
		xyl.XYs = append(xyl.XYs, plotter.XY{X: x, Y: y})
		xyl.Labels = append(xyl.Labels, strings.TrimSpace(fmt.Sprintf("%g %s", level, o.Unit)))
	}
	if len(xyl.Labels) == 0 {
		return nil, nil
	}
	l, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Color = o.Color
	}
	return l, nil
}

// crossing finds a point on the iso-line in plot coordinates (origin at the
// bottom-left corner, one unit per cell).
func crossing(f *field.ScalarField, level float64) (x, y float64, ok bool) {
	row := f.H / 2
	for col := 0; col+1 < f.W; col++ {
		a, b := f.At(col, row), f.At(col+1, row)
		if t, hit := between(a, b, level); hit {
			return float64(col) + 0.5 + t, float64(f.H-row) - 0.5, true
		}
	}
	col := f.W / 2
	for r := 0; r+1 < f.H; r++ {
		a, b := f.At(col, r), f.At(col, r+1)
		if t, hit := between(a, b, level); hit {
			return float64(col) + 0.5, float64(f.H-r) - 0.5 - t, true
		}
	}
	return 0, 0, false
}

func between(a, b, level float64) (float64, bool) {
	if a == b || (a-level)*(b-level) > 0 {
		return 0, false
	}
	return (level - a) / (b - a), true
}

// rasterGrid exposes a field to plotter.Contour. Plot rows run bottom-up, so
// plot row r is field row H-1-r.
type rasterGrid struct {
	f *field.ScalarField
}

func (g rasterGrid) Dims() (c, r int)   { return g.f.W, g.f.H }
func (g rasterGrid) Z(c, r int) float64 { return g.f.At(c, g.f.H-1-r) }
func (g rasterGrid) X(c int) float64    { return float64(c) + 0.5 }
func (g rasterGrid) Y(r int) float64    { return float64(r) + 0.5 }

type solidPalette struct {
	c color.Color
}

func (p solidPalette) Colors() []color.Color { return []color.Color{p.c} }
