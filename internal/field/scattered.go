package field

import (
	"github.com/banshee-data/heatgrid/internal/sensor"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Linear interpolates barycentrically over the Delaunay triangulation of the
// samples. Cells outside the convex hull get FillValue.
type Linear struct {
	FillValue float64
}

func newLinear(o Options) (Reconstructor, error) {
	return Linear{FillValue: o.FillValue}, nil
}

func (l Linear) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	m, err := meshFor(s, g)
	if err != nil {
		return nil, err
	}
	vals := s.Values()
	f := NewScalarField(g)
	f.Fill(func(p r2.Vec) float64 {
		i, w, ok := m.locate(p)
		if !ok {
			return l.FillValue
		}
		t := m.tris[i]
		return w[0]*vals[t[0]] + w[1]*vals[t[1]] + w[2]*vals[t[2]]
	})
	return f, nil
}

// Cubic fits a cubic Bezier patch to each Delaunay triangle using the vertex
// values and least-squares vertex gradients. The surface passes through every
// sample and is continuous across triangle edges. Cells outside the convex
// hull get FillValue.
type Cubic struct {
	FillValue float64
}

func newCubic(o Options) (Reconstructor, error) {
	return Cubic{FillValue: o.FillValue}, nil
}

func (c Cubic) Reconstruct(s sensor.SampleSet, g Grid) (*ScalarField, error) {
	m, err := meshFor(s, g)
	if err != nil {
		return nil, err
	}
	vals := s.Values()
	grads := vertexGradients(m.pts, vals)
	patches := make([]bezierPatch, len(m.tris))
	for i, t := range m.tris {
		patches[i] = newBezierPatch(m.pts, vals, grads, t)
	}
	f := NewScalarField(g)
	f.Fill(func(p r2.Vec) float64 {
		i, w, ok := m.locate(p)
		if !ok {
			return c.FillValue
		}
		return patches[i].eval(w)
	})
	return f, nil
}

func meshFor(s sensor.SampleSet, g Grid) (*mesh, error) {
	if err := checkSamples(s, g); err != nil {
		return nil, err
	}
	pts := s.Positions()
	if err := checkNonCollinear(pts); err != nil {
		return nil, err
	}
	return triangulate(pts)
}

// vertexGradients estimates the gradient at every sample with an inverse
// distance weighted least-squares plane through its neighbours. A vertex whose
// system cannot be solved gets a zero gradient.
func vertexGradients(pts []r2.Vec, vals []float64) []r2.Vec {
	n := len(pts)
	grads := make([]r2.Vec, n)
	for k := range pts {
		a := mat.NewDense(n-1, 2, nil)
		b := mat.NewVecDense(n-1, nil)
		row := 0
		for j := range pts {
			if j == k {
				continue
			}
			d := r2.Sub(pts[j], pts[k])
			w := 1 / r2.Norm(d)
			a.Set(row, 0, w*d.X)
			a.Set(row, 1, w*d.Y)
			b.SetVec(row, w*(vals[j]-vals[k]))
			row++
		}
		var x mat.VecDense
		if err := x.SolveVec(a, b); err != nil {
			continue
		}
		grads[k] = r2.Vec{X: x.AtVec(0), Y: x.AtVec(1)}
	}
	return grads
}

// bezierPatch holds the ten control values of a cubic triangular Bezier
// patch, indexed by the barycentric exponents (i, j, k), i+j+k = 3.
type bezierPatch struct {
	b300, b030, b003 float64
	b210, b201       float64
	b120, b021       float64
	b102, b012       float64
	b111             float64
}

func newBezierPatch(pts []r2.Vec, vals []float64, grads []r2.Vec, t [3]int) bezierPatch {
	p0, p1, p2 := pts[t[0]], pts[t[1]], pts[t[2]]
	f0, f1, f2 := vals[t[0]], vals[t[1]], vals[t[2]]
	g0, g1, g2 := grads[t[0]], grads[t[1]], grads[t[2]]

	// Edge control points follow the vertex tangent planes one third of the
	// way along each edge.
	bp := bezierPatch{
		b300: f0, b030: f1, b003: f2,
		b210: f0 + r2.Dot(g0, r2.Sub(p1, p0))/3,
		b201: f0 + r2.Dot(g0, r2.Sub(p2, p0))/3,
		b120: f1 + r2.Dot(g1, r2.Sub(p0, p1))/3,
		b021: f1 + r2.Dot(g1, r2.Sub(p2, p1))/3,
		b102: f2 + r2.Dot(g2, r2.Sub(p0, p2))/3,
		b012: f2 + r2.Dot(g2, r2.Sub(p1, p2))/3,
	}
	e := (bp.b210 + bp.b201 + bp.b120 + bp.b021 + bp.b102 + bp.b012) / 6
	v := (f0 + f1 + f2) / 3
	bp.b111 = e + (e-v)/2
	return bp
}

func (bp bezierPatch) eval(w [3]float64) float64 {
	u, v, t := w[0], w[1], w[2]
	return bp.b300*u*u*u + bp.b030*v*v*v + bp.b003*t*t*t +
		3*bp.b210*u*u*v + 3*bp.b201*u*u*t +
		3*bp.b120*u*v*v + 3*bp.b021*v*v*t +
		3*bp.b102*u*t*t + 3*bp.b012*v*t*t +
		6*bp.b111*u*v*t
}
