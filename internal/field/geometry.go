package field

import (
	"fmt"
	"math"

	"github.com/banshee-data/heatgrid/internal/sensor"
	"gonum.org/v1/gonum/spatial/r2"
)

const geomEps = 1e-9

// checkSamples enforces the conditions shared by all strategies: a valid
// grid, at least three samples and pairwise distinct positions.
func checkSamples(s sensor.SampleSet, g Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if s.Len() < sensor.MinSensors {
		return fmt.Errorf("%w: %d samples, need at least %d", ErrDegenerateGeometry, s.Len(), sensor.MinSensors)
	}
	pts := s.Positions()
	for i := range pts {
		for j := 0; j < i; j++ {
			if r2.Norm(r2.Sub(pts[i], pts[j])) < geomEps {
				return fmt.Errorf("%w: samples %d and %d share position (%g, %g)", ErrDegenerateGeometry, j+1, i+1, pts[i].X, pts[i].Y)
			}
		}
	}
	return nil
}

// checkNonCollinear fails when every point lies on a single line.
func checkNonCollinear(pts []r2.Vec) error {
	a := pts[0]
	var b r2.Vec
	best := 0.0
	for _, p := range pts[1:] {
		if d := r2.Norm(r2.Sub(p, a)); d > best {
			best, b = d, p
		}
	}
	if best < geomEps {
		return fmt.Errorf("%w: all samples coincide", ErrDegenerateGeometry)
	}
	dir := r2.Sub(b, a)
	for _, p := range pts {
		if math.Abs(r2.Cross(dir, r2.Sub(p, a)))/best > geomEps {
			return nil
		}
	}
	return fmt.Errorf("%w: samples are collinear", ErrDegenerateGeometry)
}
