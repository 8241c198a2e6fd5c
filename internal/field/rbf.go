package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/heatgrid/internal/sensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// RBF kernel names.
const (
	KernelThinPlate    = "thin_plate_spline"
	KernelCubic        = "cubic"
	KernelLinear       = "linear"
	KernelGaussian     = "gaussian"
	KernelMultiquadric = "multiquadric"

	DefaultKernel  = KernelThinPlate
	DefaultEpsilon = 3.0
)

type kernelFunc func(r, eps float64) float64

var kernels = map[string]kernelFunc{
	KernelThinPlate: func(r, _ float64) float64 {
		if r == 0 {
			return 0
		}
		return r * r * math.Log(r)
	},
	KernelCubic:  func(r, _ float64) float64 { return r * r * r },
	KernelLinear: func(r, _ float64) float64 { return -r },
	KernelGaussian: func(r, eps float64) float64 {
		return math.Exp(-(eps * r) * (eps * r))
	},
	KernelMultiquadric: func(r, eps float64) float64 {
		return -math.Sqrt(1 + (eps*r)*(eps*r))
	},
}

// RBF is a global radial basis interpolant with a degree-1 polynomial tail.
// With zero smoothing it passes through every sample; larger smoothing
// trades exactness for a flatter surface. It is evaluated over the whole
// grid, extrapolating beyond the samples.
type RBF struct {
	Kernel    string
	Smoothing float64
	Epsilon   float64
}

func newRBF(o Options) (Reconstructor, error) {
	r := RBF{Kernel: o.Kernel, Smoothing: o.Smoothing, Epsilon: o.Epsilon}
	if r.Kernel == "" {
		r.Kernel = DefaultKernel
	}
	if _, ok := kernels[r.Kernel]; !ok {
		return nil, fmt.Errorf("rbf: unknown kernel %q", r.Kernel)
	}
	if r.Smoothing < 0 {
		return nil, fmt.Errorf("rbf: smoothing must be >= 0, got %g", r.Smoothing)
	}
	if r.Epsilon == 0 {
		r.Epsilon = DefaultEpsilon
	}
	if r.Epsilon < 0 {
		return nil, fmt.Errorf("rbf: epsilon must be > 0, got %g", r.Epsilon)
	}
	return r, nil
}

func (r RBF) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	if err := checkSamples(s, g); err != nil {
		return nil, err
	}
	pts := s.Positions()
	if err := checkNonCollinear(pts); err != nil {
		return nil, err
	}
	phi, ok := kernels[r.Kernel]
	if !ok {
		return nil, fmt.Errorf("rbf: unknown kernel %q", r.Kernel)
	}

	w, c, err := r.solve(pts, s.Values(), phi)
	if err != nil {
		return nil, err
	}

	f := NewScalarField(g)
	f.Fill(func(p r2.Vec) float64 {
		v := c[0] + c[1]*p.X + c[2]*p.Y
		for i, q := range pts {
			v += w[i] * phi(r2.Norm(r2.Sub(p, q)), r.Epsilon)
		}
		return v
	})
	return f, nil
}

// solve sets up the saddle-point system
//
//	[K + sI  P] [w]   [v]
//	[P^T     0] [c] = [0]
//
// with K_ij = phi(|p_i - p_j|) and P_i = (1, x_i, y_i).
func (r RBF) solve(pts []r2.Vec, vals []float64, phi kernelFunc) (w, c []float64, err error) {
	n := len(pts)
	size := n + 3
	a := mat.NewDense(size, size, nil)
	b := mat.NewVecDense(size, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, phi(r2.Norm(r2.Sub(pts[i], pts[j])), r.Epsilon))
		}
		a.Set(i, i, a.At(i, i)+r.Smoothing)
		a.Set(i, n, 1)
		a.Set(i, n+1, pts[i].X)
		a.Set(i, n+2, pts[i].Y)
		a.Set(n, i, 1)
		a.Set(n+1, i, pts[i].X)
		a.Set(n+2, i, pts[i].Y)
		b.SetVec(i, vals[i])
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, fmt.Errorf("%w: rbf system: %v", ErrDegenerateGeometry, err)
		}
	}
	for i := 0; i < size; i++ {
		if v := x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: rbf system is singular", ErrDegenerateGeometry)
		}
	}
	w = make([]float64, n)
	for i := range w {
		w[i] = x.AtVec(i)
	}
	return w, []float64{x.AtVec(n), x.AtVec(n + 1), x.AtVec(n + 2)}, nil
}
