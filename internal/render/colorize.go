package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/banshee-data/heatgrid/internal/field"
)

// Colour modes.
const (
	ModeContinuous = "continuous"
	ModeBanded     = "banded"
)

// ErrInvalidBands is returned by NewBanded.
var ErrInvalidBands = errors.New("invalid colour bands")

// Colorizer turns a normalized field into an opaque RGBA frame of the same
// size. Pixel (x, y) takes the colour of cell (col=x, row=y).
type Colorizer interface {
	Colorize(f *field.ScalarField) *image.RGBA
}

// Continuous colours every cell through a ColorMap.
type Continuous struct {
	Map ColorMap
}

func (c Continuous) Colorize(f *field.ScalarField) *image.RGBA {
	return paint(f, c.Map.RGBA)
}

// Banded assigns each cell the colour of the band containing its value.
// Band i covers [Boundaries[i], Boundaries[i+1]); values below the first
// boundary use band 0 and the top band absorbs everything above.
type Banded struct {
	Boundaries []float64
	Colors     []color.RGBA
}

// NewBanded validates that boundaries strictly increase and that there is
// exactly one colour per band.
func NewBanded(boundaries []float64, colors []color.RGBA) (*Banded, error) {
	if len(boundaries) < 2 {
		return nil, fmt.Errorf("%w: need at least two boundaries, got %d", ErrInvalidBands, len(boundaries))
	}
	if len(colors) != len(boundaries)-1 {
		return nil, fmt.Errorf("%w: %d boundaries need %d colours, got %d", ErrInvalidBands, len(boundaries), len(boundaries)-1, len(colors))
	}
	for i, b := range boundaries {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, fmt.Errorf("%w: boundary %d is not finite", ErrInvalidBands, i)
		}
		if i > 0 && b <= boundaries[i-1] {
			return nil, fmt.Errorf("%w: boundaries must strictly increase (%g after %g)", ErrInvalidBands, b, boundaries[i-1])
		}
	}
	bd := &Banded{
		Boundaries: append([]float64(nil), boundaries...),
		Colors:     append([]color.RGBA(nil), colors...),
	}
	for i := range bd.Colors {
		bd.Colors[i].A = 255
	}
	return bd, nil
}

// Band returns the band index for a normalized value.
func (b *Banded) Band(v float64) int {
	band := 0
	for i := 1; i < len(b.Colors); i++ {
		if v >= b.Boundaries[i] {
			band = i
		}
	}
	return band
}

func (b *Banded) Colorize(f *field.ScalarField) *image.RGBA {
	return paint(f, func(v float64) color.RGBA { return b.Colors[b.Band(v)] })
}

func paint(f *field.ScalarField, colour func(float64) color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	for row := 0; row < f.H; row++ {
		for col := 0; col < f.W; col++ {
			c := colour(f.At(col, row))
			i := img.PixOffset(col, row)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 255
		}
	}
	return img
}
