package render

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColorMap is used when no colormap is configured.
const DefaultColorMap = "plasma"

// paletteMap adapts a gonum/plot palette.ColorMap spanning [0,1].
type paletteMap struct {
	name string
	cm   palette.ColorMap
}

func newPaletteMap(name string, cm palette.ColorMap) *paletteMap {
	cm.SetMax(1)
	cm.SetMin(0)
	return &paletteMap{name: name, cm: cm}
}

func (p *paletteMap) Name() string { return p.name }

func (p *paletteMap) RGBA(v float64) color.RGBA {
	c, err := p.cm.At(clamp01(v))
	if err != nil {
		return color.RGBA{A: 255}
	}
	r, g, b, _ := c.RGBA()
	return color.RGBA{
		R: quantize(float64(r) / 0xffff),
		G: quantize(float64(g) / 0xffff),
		B: quantize(float64(b) / 0xffff),
		A: 255,
	}
}

var colorMaps = map[string]func() ColorMap{
	"plasma":    func() ColorMap { return Plasma },
	"viridis":   func() ColorMap { return Viridis },
	"inferno":   func() ColorMap { return Inferno },
	"magma":     func() ColorMap { return Magma },
	"blackbody": func() ColorMap { return newPaletteMap("blackbody", moreland.ExtendedBlackBody()) },
	"kindlmann": func() ColorMap { return newPaletteMap("kindlmann", moreland.ExtendedKindlmann()) },
	"coolwarm":  func() ColorMap { return newPaletteMap("coolwarm", moreland.SmoothBlueRed()) },
}

// LookupColorMap returns the named continuous colour map.
func LookupColorMap(name string) (ColorMap, error) {
	if name == "" {
		name = DefaultColorMap
	}
	mk, ok := colorMaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (known: %v)", name, ColorMaps())
	}
	return mk(), nil
}

// ColorMaps lists the available colour map names.
func ColorMaps() []string {
	names := make([]string, 0, len(colorMaps))
	for n := range colorMaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
