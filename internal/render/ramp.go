// Package render colours normalized fields and encodes them as PNG.
package render

import (
	"image/color"
	"math"
)

// ColorMap maps a normalized value in [0,1] to an opaque colour. Values
// outside the range are clamped and NaN maps to the low end.
type ColorMap interface {
	Name() string
	RGBA(v float64) color.RGBA
}

// Ramp is a continuous colour map interpolated linearly in sRGB between
// evenly spaced control stops.
type Ramp struct {
	name  string
	stops []color.RGBA
}

// NewRamp builds a ramp from at least two stops.
func NewRamp(name string, stops ...color.RGBA) *Ramp {
	if len(stops) < 2 {
		panic("render: ramp " + name + " needs at least two stops")
	}
	return &Ramp{name: name, stops: stops}
}

func (r *Ramp) Name() string { return r.name }

func (r *Ramp) RGBA(v float64) color.RGBA {
	v = clamp01(v)
	n := len(r.stops) - 1
	pos := v * float64(n)
	i := min(int(pos), n-1)
	f := pos - float64(i)
	a, b := r.stops[i], r.stops[i+1]
	return color.RGBA{
		R: quantize(lerp(a.R, b.R, f)),
		G: quantize(lerp(a.G, b.G, f)),
		B: quantize(lerp(a.B, b.B, f)),
		A: 255,
	}
}

func lerp(a, b uint8, f float64) float64 {
	return (float64(a)*(1-f) + float64(b)*f) / 255
}

// quantize maps a channel intensity in [0,1] to 8 bits.
func quantize(c float64) uint8 {
	return uint8(math.Round(clamp01(c) * 255))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	}
	return v
}

// Table is a sampled colour map. A value selects bin floor(v*N) of the N
// entries, the same lookup matplotlib performs for its listed colormaps.
type Table struct {
	name    string
	entries []color.RGBA
}

// NewTable builds a table from packed RRGGBB hex triplets.
func NewTable(name, packed string) *Table {
	if len(packed) == 0 || len(packed)%6 != 0 {
		panic("render: table " + name + " is not a list of RRGGBB triplets")
	}
	hex := make([]string, 0, len(packed)/6)
	for i := 0; i < len(packed); i += 6 {
		hex = append(hex, packed[i:i+6])
	}
	return &Table{name: name, entries: hexStops(hex...)}
}

func (t *Table) Name() string { return t.name }

func (t *Table) RGBA(v float64) color.RGBA {
	n := len(t.entries)
	return t.entries[min(int(clamp01(v)*float64(n)), n-1)]
}

func hexStops(hex ...string) []color.RGBA {
	out := make([]color.RGBA, len(hex))
	for i, h := range hex {
		c, err := ParseHexColor(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// Plasma is the full matplotlib table. The other ramps interpolate control
// stops sampled at ten even positions from the matplotlib perceptually
// uniform colormaps.
var (
	Plasma = NewTable("plasma", plasmaTable)

	Viridis = NewRamp("viridis", hexStops(
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725")...)
	Inferno = NewRamp("inferno", hexStops(
		"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
		"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4")...)
	Magma = NewRamp("magma", hexStops(
		"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f",
		"#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf")...)
)
