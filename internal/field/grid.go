// Package field reconstructs dense scalar fields from sparse sensor samples
// and normalizes them for colouring.
package field

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidGrid is returned for grids smaller than 2x2.
var ErrInvalidGrid = errors.New("invalid grid")

// Grid is the output resolution. Cell (col, row) sits at the normalized
// position (col/(W-1), row/(H-1)); row 0 is the top edge.
type Grid struct {
	W int
	H int
}

// Validate checks both dimensions are at least 2.
func (g Grid) Validate() error {
	if g.W < 2 || g.H < 2 {
		return fmt.Errorf("%w: %dx%d, need at least 2x2", ErrInvalidGrid, g.W, g.H)
	}
	return nil
}

// X returns the normalized x coordinate of column col.
func (g Grid) X(col int) float64 { return float64(col) / float64(g.W-1) }

// Y returns the normalized y coordinate of row row.
func (g Grid) Y(row int) float64 { return float64(row) / float64(g.H-1) }

// Pos returns the normalized position of a cell.
func (g Grid) Pos(col, row int) r2.Vec { return r2.Vec{X: g.X(col), Y: g.Y(row)} }

// ScalarField is a W x H row-major field: Vals[row*W+col].
type ScalarField struct {
	W    int
	H    int
	Vals []float64
}

// NewScalarField allocates a zeroed field matching g.
func NewScalarField(g Grid) *ScalarField {
	return &ScalarField{W: g.W, H: g.H, Vals: make([]float64, g.W*g.H)}
}

// Grid returns the field's shape.
func (f *ScalarField) Grid() Grid { return Grid{W: f.W, H: f.H} }

func (f *ScalarField) At(col, row int) float64 { return f.Vals[row*f.W+col] }

func (f *ScalarField) Set(col, row int, v float64) { f.Vals[row*f.W+col] = v }

// Fill evaluates fn at every cell position.
func (f *ScalarField) Fill(fn func(p r2.Vec) float64) {
	g := f.Grid()
	for row := 0; row < f.H; row++ {
		y := g.Y(row)
		for col := 0; col < f.W; col++ {
			f.Vals[row*f.W+col] = fn(r2.Vec{X: g.X(col), Y: y})
		}
	}
}

// Range returns the minimum and maximum value of the field.
func (f *ScalarField) Range() (lo, hi float64) {
	if len(f.Vals) == 0 {
		return 0, 0
	}
	return floats.Min(f.Vals), floats.Max(f.Vals)
}

// Clone returns a deep copy.
func (f *ScalarField) Clone() *ScalarField {
	vals := make([]float64, len(f.Vals))
	copy(vals, f.Vals)
	return &ScalarField{W: f.W, H: f.H, Vals: vals}
}
