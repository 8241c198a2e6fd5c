package field

import (
	"fmt"
	"math"

	"github.com/banshee-data/heatgrid/internal/sensor"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultSigma is the Gaussian spread in normalized units.
const DefaultSigma = 0.15

// Gaussian treats each sample as a radially symmetric Gaussian source with
// amplitude equal to its value and sums the sources at every cell.
type Gaussian struct {
	Sigma float64
}

func newGaussian(o Options) (Reconstructor, error) {
	g := Gaussian{Sigma: o.Sigma}
	if g.Sigma == 0 {
		g.Sigma = DefaultSigma
	}
	if g.Sigma < 0 {
		return nil, fmt.Errorf("gaussian: sigma must be > 0, got %g", g.Sigma)
	}
	return g, nil
}

func (gs Gaussian) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	if err := checkSamples(s, g); err != nil {
		return nil, err
	}
	denom := 2 * gs.Sigma * gs.Sigma
	f := NewScalarField(g)
	f.Fill(func(p r2.Vec) float64 {
		var v float64
		for _, pt := range s.Points {
			v += pt.Value * math.Exp(-r2.Norm2(r2.Sub(p, pt.Pos))/denom)
		}
		return v
	})
	return f, nil
}
