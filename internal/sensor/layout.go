package sensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// MinSensors is the smallest layout the field reconstructors accept.
const MinSensors = 3

// ErrInvalidLayout is returned by Layout.Validate.
var ErrInvalidLayout = errors.New("invalid sensor layout")

// Layout is the fixed, ordered list of normalized sensor positions. Sensor i
// (1-based) sits at Layout[i-1].
type Layout []r2.Vec

// Validate checks the layout has enough sensors, all inside the unit square
// and pairwise distinct.
func (l Layout) Validate() error {
	if len(l) < MinSensors {
		return fmt.Errorf("%w: %d sensors, need at least %d", ErrInvalidLayout, len(l), MinSensors)
	}
	for i, p := range l {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("%w: sensor %d at (%g, %g) outside [0,1]", ErrInvalidLayout, i+1, p.X, p.Y)
		}
		for j := 0; j < i; j++ {
			if l[j] == p {
				return fmt.Errorf("%w: sensors %d and %d share position (%g, %g)", ErrInvalidLayout, j+1, i+1, p.X, p.Y)
			}
		}
	}
	return nil
}

// LineLayout spaces n sensors evenly along the horizontal centre line.
func LineLayout(n int) Layout {
	l := make(Layout, n)
	for i := range l {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		l[i] = r2.Vec{X: x, Y: 0.5}
	}
	return l
}

// LatticeLayout places rows*cols sensors on a regular lattice spanning the
// unit square, in row-major order starting at the top-left corner.
func LatticeLayout(rows, cols int) Layout {
	l := make(Layout, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			l = append(l, r2.Vec{X: frac(c, cols), Y: frac(r, rows)})
		}
	}
	return l
}

func frac(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}
