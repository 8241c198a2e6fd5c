package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// superScale sizes the enclosing triangle relative to the sample extent.
// Smaller values drop thin triangles along the convex hull.
const superScale = 1e4

// mesh is a Delaunay triangulation of a point set.
type mesh struct {
	pts  []r2.Vec
	tris [][3]int
}

type circumTri struct {
	v      [3]int
	centre r2.Vec
	rr     float64 // squared circumradius
}

type edge struct{ a, b int }

func mkEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// triangulate runs Bowyer-Watson insertion inside a large enclosing
// triangle. Callers must reject collinear input beforehand.
func triangulate(pts []r2.Vec) (*mesh, error) {
	n := len(pts)
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span < geomEps {
		return nil, fmt.Errorf("%w: zero extent", ErrDegenerateGeometry)
	}
	mid := r2.Scale(0.5, r2.Add(lo, hi))

	all := make([]r2.Vec, n, n+3)
	copy(all, pts)
	all = append(all,
		r2.Vec{X: mid.X - superScale*span, Y: mid.Y - superScale*span},
		r2.Vec{X: mid.X, Y: mid.Y + superScale*span},
		r2.Vec{X: mid.X + superScale*span, Y: mid.Y - superScale*span},
	)

	tris := []circumTri{circumscribe(all, [3]int{n, n + 1, n + 2})}
	for i := 0; i < n; i++ {
		p := all[i]
		var bad, keep []circumTri
		for _, t := range tris {
			if r2.Norm2(r2.Sub(p, t.centre)) < t.rr-1e-12 {
				bad = append(bad, t)
			} else {
				keep = append(keep, t)
			}
		}
		count := make(map[edge]int)
		for _, t := range bad {
			for k := 0; k < 3; k++ {
				count[mkEdge(t.v[k], t.v[(k+1)%3])]++
			}
		}
		for _, t := range bad {
			for k := 0; k < 3; k++ {
				a, b := t.v[k], t.v[(k+1)%3]
				if count[mkEdge(a, b)] == 1 {
					keep = append(keep, circumscribe(all, [3]int{a, b, i}))
				}
			}
		}
		tris = keep
	}

	m := &mesh{pts: pts}
	for _, t := range tris {
		if t.v[0] >= n || t.v[1] >= n || t.v[2] >= n {
			continue
		}
		if math.Abs(signedArea(pts[t.v[0]], pts[t.v[1]], pts[t.v[2]])) < geomEps*geomEps {
			continue
		}
		m.tris = append(m.tris, t.v)
	}
	if len(m.tris) == 0 {
		return nil, fmt.Errorf("%w: no triangles", ErrDegenerateGeometry)
	}
	return m, nil
}

func circumscribe(pts []r2.Vec, v [3]int) circumTri {
	a, b, c := pts[v[0]], pts[v[1]], pts[v[2]]
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-18 {
		// Flat triangle: treat every point as inside so the next insertion
		// replaces it.
		return circumTri{v: v, centre: a, rr: math.Inf(1)}
	}
	a2, b2, c2 := r2.Norm2(a), r2.Norm2(b), r2.Norm2(c)
	centre := r2.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}
	return circumTri{v: v, centre: centre, rr: r2.Norm2(r2.Sub(a, centre))}
}

func signedArea(a, b, c r2.Vec) float64 {
	return 0.5 * r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// locate returns the triangle containing p and p's barycentric coordinates
// in it. Points on shared edges resolve to the first matching triangle.
func (m *mesh) locate(p r2.Vec) (int, [3]float64, bool) {
	const tol = -1e-9
	for i, t := range m.tris {
		a, b, c := m.pts[t[0]], m.pts[t[1]], m.pts[t[2]]
		det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
		l0 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / det
		l1 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / det
		l2 := 1 - l0 - l1
		if l0 >= tol && l1 >= tol && l2 >= tol {
			return i, [3]float64{l0, l1, l2}, true
		}
	}
	return -1, [3]float64{}, false
}
