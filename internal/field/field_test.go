package field

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/heatgrid/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// samples builds a SampleSet directly from positions and values.
func samples(layout sensor.Layout, vals ...float64) sensor.SampleSet {
	var s sensor.SampleSet
	for i, p := range layout {
		s.Points = append(s.Points, sensor.SamplePoint{Sensor: i + 1, Pos: p, Value: vals[i]})
	}
	return s
}

var triangle = sensor.Layout{{X: 0.25, Y: 0.3}, {X: 0.5, Y: 0.7}, {X: 0.75, Y: 0.4}}

func plane(p r2.Vec) float64 { return 5 + 10*p.X + 20*p.Y }

func planeSamples(layout sensor.Layout) sensor.SampleSet {
	vals := make([]float64, len(layout))
	for i, p := range layout {
		vals[i] = plane(p)
	}
	return samples(layout, vals...)
}

func mustNew(t *testing.T, name string, o Options) Reconstructor {
	t.Helper()
	r, err := New(name, o)
	require.NoError(t, err)
	return r
}

func TestGrid(t *testing.T) {
	g := Grid{W: 5, H: 3}
	require.NoError(t, g.Validate())
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, g.Pos(0, 0))
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, g.Pos(4, 2))
	assert.Equal(t, r2.Vec{X: 0.5, Y: 0.5}, g.Pos(2, 1))

	assert.ErrorIs(t, Grid{W: 1, H: 10}.Validate(), ErrInvalidGrid)
	assert.ErrorIs(t, Grid{W: 10, H: 0}.Validate(), ErrInvalidGrid)

	f := NewScalarField(g)
	f.Fill(func(p r2.Vec) float64 { return p.X + 10*p.Y })
	assert.Equal(t, 10.5, f.At(2, 2))
	assert.Equal(t, f.Vals[2*5+2], f.At(2, 2))
	lo, hi := f.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 11.0, hi)

	c := f.Clone()
	c.Set(0, 0, 99)
	assert.Equal(t, 0.0, f.At(0, 0))
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"block", "cubic", "gaussian", "linear", "profile", "rbf"}, Strategies())

	_, err := New("kriging", Options{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	assert.Panics(t, func() { Register(StrategyRBF, newRBF) })

	_, err = New(StrategyRBF, Options{Kernel: "sinc"})
	assert.Error(t, err)
	_, err = New(StrategyRBF, Options{Smoothing: -1})
	assert.Error(t, err)
	_, err = New(StrategyProfile, Options{Axis: "z"})
	assert.Error(t, err)
	_, err = New(StrategyGaussian, Options{Sigma: -0.1})
	assert.Error(t, err)
}

func TestAllStrategiesShareShape(t *testing.T) {
	g := Grid{W: 17, H: 11}
	lattice := samples(sensor.LatticeLayout(3, 3), 10, 20, 30, 40, 50, 60, 70, 80, 90)
	for _, name := range Strategies() {
		t.Run(name, func(t *testing.T) {
			s := lattice
			if name == StrategyProfile {
				// lattice columns share x coordinates
				s = samples(triangle, 10, 50, 10)
			}
			f, err := mustNew(t, name, Options{}).Reconstruct(s, g)
			require.NoError(t, err)
			assert.Equal(t, g.W, f.W)
			assert.Equal(t, g.H, f.H)
			require.Len(t, f.Vals, g.W*g.H)
			for _, v := range f.Vals {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
		})
	}
}

func TestDegenerateInput(t *testing.T) {
	g := Grid{W: 10, H: 10}
	tooFew := samples(sensor.Layout{{X: 0, Y: 0}, {X: 1, Y: 1}}, 1, 2)
	dup := samples(sensor.Layout{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}}, 1, 2, 3)
	collinear := samples(sensor.LineLayout(4), 1, 2, 3, 4)

	for _, name := range Strategies() {
		t.Run(name, func(t *testing.T) {
			r := mustNew(t, name, Options{})
			_, err := r.Reconstruct(tooFew, g)
			assert.ErrorIs(t, err, ErrDegenerateGeometry)
			_, err = r.Reconstruct(dup, g)
			assert.ErrorIs(t, err, ErrDegenerateGeometry)
			_, err = r.Reconstruct(samples(triangle, 1, 2, 3), Grid{W: 1, H: 1})
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}

	for _, name := range []string{StrategyLinear, StrategyCubic, StrategyRBF} {
		_, err := mustNew(t, name, Options{}).Reconstruct(collinear, g)
		if !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("%s: collinear layout should be degenerate, got %v", name, err)
		}
	}
	// profile and gaussian accept a line of sensors
	for _, name := range []string{StrategyProfile, StrategyGaussian} {
		_, err := mustNew(t, name, Options{}).Reconstruct(collinear, g)
		assert.NoError(t, err, name)
	}
}

func TestProfileScenario(t *testing.T) {
	g := Grid{W: 300, H: 100}
	f, err := mustNew(t, StrategyProfile, Options{}).Reconstruct(samples(sensor.LineLayout(3), 10, 20, 30), g)
	require.NoError(t, err)

	for row := 0; row < g.H; row++ {
		assert.Equal(t, 10.0, f.At(0, row))
		assert.InDelta(t, 30.0, f.At(g.W-1, row), 1e-12)
	}
	// linear between knots: x = 75/299 lies between 0 and 0.5
	assert.InDelta(t, 10+20*75.0/299, f.At(75, 0), 1e-9)
	// every row is the same profile
	for col := 0; col < g.W; col++ {
		assert.Equal(t, f.At(col, 0), f.At(col, g.H-1))
	}
}

func TestProfileHoldsEndValues(t *testing.T) {
	layout := sensor.Layout{{X: 0.2, Y: 0.1}, {X: 0.5, Y: 0.9}, {X: 0.8, Y: 0.5}}
	g := Grid{W: 11, H: 5}
	f, err := Profile{Axis: "x"}.Reconstruct(samples(layout, 7, 1, 3), g)
	require.NoError(t, err)
	assert.Equal(t, 7.0, f.At(0, 2))
	assert.Equal(t, 7.0, f.At(1, 2))
	assert.InDelta(t, 1.0, f.At(5, 2), 1e-12)
	assert.Equal(t, 3.0, f.At(10, 2))
}

func TestProfileYAxis(t *testing.T) {
	layout := sensor.Layout{{X: 0.5, Y: 0}, {X: 0.2, Y: 0.5}, {X: 0.9, Y: 1}}
	g := Grid{W: 4, H: 3}
	f, err := mustNew(t, StrategyProfile, Options{Axis: "y"}).Reconstruct(samples(layout, 1, 2, 3), g)
	require.NoError(t, err)
	for col := 0; col < g.W; col++ {
		assert.Equal(t, 1.0, f.At(col, 0))
		assert.Equal(t, 2.0, f.At(col, 1))
		assert.Equal(t, 3.0, f.At(col, 2))
	}

	// two sensors in the same row cannot form a y profile
	_, err = Profile{Axis: "y"}.Reconstruct(samples(sensor.LatticeLayout(2, 2), 1, 2, 3, 4), g)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestExactAtSamples(t *testing.T) {
	// A 3x3 grid places one cell exactly on each lattice sensor.
	g := Grid{W: 3, H: 3}
	vals := []float64{12, 40, 7, 33, 58, 21, 9, 16, 44}
	s := samples(sensor.LatticeLayout(3, 3), vals...)

	for _, name := range []string{StrategyLinear, StrategyCubic, StrategyRBF, StrategyBlock} {
		t.Run(name, func(t *testing.T) {
			f, err := mustNew(t, name, Options{}).Reconstruct(s, g)
			require.NoError(t, err)
			for i, want := range vals {
				assert.InDelta(t, want, f.Vals[i], 1e-6, "sample %d", i+1)
			}
		})
	}
}

func TestRBFKernelsInterpolate(t *testing.T) {
	g := Grid{W: 3, H: 3}
	vals := []float64{12, 40, 7, 33, 58, 21, 9, 16, 44}
	s := samples(sensor.LatticeLayout(3, 3), vals...)
	for _, k := range []string{KernelThinPlate, KernelCubic, KernelLinear, KernelGaussian, KernelMultiquadric} {
		t.Run(k, func(t *testing.T) {
			f, err := mustNew(t, StrategyRBF, Options{Kernel: k}).Reconstruct(s, g)
			require.NoError(t, err)
			for i, want := range vals {
				assert.InDelta(t, want, f.Vals[i], 1e-6)
			}
		})
	}
}

func TestLinearReproducesPlane(t *testing.T) {
	g := Grid{W: 101, H: 101}
	f, err := Linear{FillValue: -1}.Reconstruct(planeSamples(triangle), g)
	require.NoError(t, err)

	assert.InDelta(t, plane(g.Pos(50, 47)), f.At(50, 47), 1e-9)
	// corners lie outside the hull
	assert.Equal(t, -1.0, f.At(0, 0))
	assert.Equal(t, -1.0, f.At(100, 100))
}

func TestCubicReproducesPlane(t *testing.T) {
	g := Grid{W: 21, H: 21}
	f, err := Cubic{}.Reconstruct(planeSamples(sensor.LatticeLayout(3, 3)), g)
	require.NoError(t, err)
	for row := 0; row < g.H; row++ {
		for col := 0; col < g.W; col++ {
			assert.InDelta(t, plane(g.Pos(col, row)), f.At(col, row), 1e-9)
		}
	}

	f, err = Cubic{FillValue: 3}.Reconstruct(planeSamples(triangle), g)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.At(0, 0))
}

func TestRBFScenario(t *testing.T) {
	g := Grid{W: 300, H: 200}
	r := mustNew(t, StrategyRBF, Options{Smoothing: 5})
	f, err := r.Reconstruct(samples(triangle, 10, 50, 10), g)
	require.NoError(t, err)

	col := int(math.Round(0.5 * float64(g.W-1)))
	row := int(math.Round(0.7 * float64(g.H-1)))
	v := f.At(col, row)
	assert.Less(t, math.Abs(v-50), math.Abs(v-10), "value %g near the 50 anchor", v)
}

func TestRBFSmoothing(t *testing.T) {
	g := Grid{W: 3, H: 3}
	s := samples(sensor.LatticeLayout(3, 3), 10, 10, 10, 10, 50, 10, 10, 10, 10)

	exact, err := mustNew(t, StrategyRBF, Options{}).Reconstruct(s, g)
	require.NoError(t, err)
	smooth, err := mustNew(t, StrategyRBF, Options{Smoothing: 5}).Reconstruct(s, g)
	require.NoError(t, err)

	assert.InDelta(t, 50, exact.At(1, 1), 1e-6)
	assert.Less(t, smooth.At(1, 1), 40.0)
	assert.Greater(t, smooth.At(1, 1), 10.0)
}

func TestGaussianSuperposition(t *testing.T) {
	g := Grid{W: 11, H: 11}
	s := samples(triangle, 10, 50, 10)
	f, err := Gaussian{Sigma: 0.2}.Reconstruct(s, g)
	require.NoError(t, err)

	p := g.Pos(3, 8)
	var want float64
	for _, pt := range s.Points {
		d := r2.Norm(r2.Sub(p, pt.Pos))
		want += pt.Value * math.Exp(-d*d/(2*0.2*0.2))
	}
	assert.InDelta(t, want, f.At(3, 8), 1e-9)

	r, err := New(StrategyGaussian, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSigma, r.(Gaussian).Sigma)
}

func TestBlockScenario(t *testing.T) {
	g := Grid{W: 300, H: 300}
	vals := make([]float64, 9)
	for i := range vals {
		vals[i] = 45
	}
	f, err := Block{}.Reconstruct(samples(sensor.LatticeLayout(3, 3), vals...), g)
	require.NoError(t, err)
	for _, v := range f.Vals {
		if v != 45 {
			t.Fatalf("expected flat field of 45, found %g", v)
		}
	}
}

func TestBlockQuadrants(t *testing.T) {
	g := Grid{W: 4, H: 4}
	f, err := Block{}.Reconstruct(samples(sensor.LatticeLayout(2, 2), 1, 2, 3, 4), g)
	require.NoError(t, err)
	want := []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	assert.Equal(t, want, f.Vals)

	// sensor order does not matter, only positions
	shuffled := sensor.Layout{{X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	f, err = Block{}.Reconstruct(samples(shuffled, 4, 1, 2, 3), g)
	require.NoError(t, err)
	assert.Equal(t, want, f.Vals)

	_, err = Block{}.Reconstruct(samples(triangle, 1, 2, 3), g)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestTriangulateLattice(t *testing.T) {
	tests := []struct {
		rows, cols int
		tris       int
	}{
		{3, 3, 8},
		{2, 4, 6},
		{2, 3, 4},
	}
	for _, tt := range tests {
		m, err := triangulate(sensor.LatticeLayout(tt.rows, tt.cols))
		require.NoError(t, err)
		assert.Len(t, m.tris, tt.tris)

		var area float64
		for _, tri := range m.tris {
			area += math.Abs(signedArea(m.pts[tri[0]], m.pts[tri[1]], m.pts[tri[2]]))
		}
		assert.InDelta(t, 1.0, area, 1e-12)
	}
}
