package field

import (
	"fmt"
	"sort"

	"github.com/banshee-data/heatgrid/internal/sensor"
	"gonum.org/v1/gonum/interp"
)

// Profile interpolates samples linearly along one axis and replicates the
// resulting 1D profile across the other axis. Outside the sampled span the
// end values are held constant.
type Profile struct {
	Axis string // "x" (default) or "y"
}

func newProfile(o Options) (Reconstructor, error) {
	switch o.Axis {
	case "", "x":
		return Profile{Axis: "x"}, nil
	case "y":
		return Profile{Axis: "y"}, nil
	}
	return nil, fmt.Errorf("profile: unknown axis %q", o.Axis)
}

func (p Profile) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	if err := checkSamples(s, g); err != nil {
		return nil, err
	}

	type knot struct{ at, v float64 }
	knots := make([]knot, s.Len())
	for i, pt := range s.Points {
		at := pt.Pos.X
		if p.Axis == "y" {
			at = pt.Pos.Y
		}
		knots[i] = knot{at: at, v: pt.Value}
	}
	sort.SliceStable(knots, func(i, j int) bool { return knots[i].at < knots[j].at })

	xs := make([]float64, len(knots))
	ys := make([]float64, len(knots))
	for i, k := range knots {
		if i > 0 && k.at-knots[i-1].at < geomEps {
			return nil, fmt.Errorf("%w: two samples share %s=%g", ErrDegenerateGeometry, p.Axis, k.at)
		}
		xs[i], ys[i] = k.at, k.v
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}
	eval := func(t float64) float64 {
		switch {
		case t <= xs[0]:
			return ys[0]
		case t >= xs[len(xs)-1]:
			return ys[len(ys)-1]
		}
		return pl.Predict(t)
	}

	f := NewScalarField(g)
	if p.Axis == "y" {
		for row := 0; row < g.H; row++ {
			v := eval(g.Y(row))
			for col := 0; col < g.W; col++ {
				f.Set(col, row, v)
			}
		}
		return f, nil
	}
	line := make([]float64, g.W)
	for col := range line {
		line[col] = eval(g.X(col))
	}
	for row := 0; row < g.H; row++ {
		copy(f.Vals[row*g.W:(row+1)*g.W], line)
	}
	return f, nil
}
