package field

import (
	"fmt"
	"sort"

	"github.com/banshee-data/heatgrid/internal/sensor"
)

// Block reshapes samples laid out on a regular rows x cols lattice into a
// low resolution grid and upscales it by nearest-neighbour replication.
type Block struct{}

func newBlock(Options) (Reconstructor, error) { return Block{}, nil }

func (Block) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	if err := checkSamples(s, g); err != nil {
		return nil, err
	}
	xs := distinctCoords(s, func(p sensor.SamplePoint) float64 { return p.Pos.X })
	ys := distinctCoords(s, func(p sensor.SamplePoint) float64 { return p.Pos.Y })
	cols, rows := len(xs), len(ys)
	if cols*rows != s.Len() {
		return nil, fmt.Errorf("%w: %d samples do not form a %dx%d lattice", ErrDegenerateGeometry, s.Len(), rows, cols)
	}

	// checkSamples rejected duplicates, so rows*cols distinct points on the
	// lattice cover every slot exactly once.
	lattice := make([]float64, rows*cols)
	for _, pt := range s.Points {
		c := sort.SearchFloat64s(xs, pt.Pos.X-geomEps)
		r := sort.SearchFloat64s(ys, pt.Pos.Y-geomEps)
		lattice[r*cols+c] = pt.Value
	}

	f := NewScalarField(g)
	for row := 0; row < g.H; row++ {
		r := min(row*rows/g.H, rows-1)
		for col := 0; col < g.W; col++ {
			c := min(col*cols/g.W, cols-1)
			f.Set(col, row, lattice[r*cols+c])
		}
	}
	return f, nil
}

// distinctCoords returns the sorted distinct values of one coordinate.
func distinctCoords(s sensor.SampleSet, coord func(sensor.SamplePoint) float64) []float64 {
	all := make([]float64, 0, s.Len())
	for _, p := range s.Points {
		all = append(all, coord(p))
	}
	sort.Float64s(all)
	out := all[:1]
	for _, v := range all[1:] {
		if v-out[len(out)-1] > geomEps {
			out = append(out, v)
		}
	}
	return out
}
