// Package polygon implements point-in-polygon tests by ray casting.
package polygon

import "github.com/golang/geo/r2"

// IsInside reports whether (x, y) lies inside the polygon with vertices
// (vx[i], vy[i]). The polygon is closed implicitly and may be concave but
// must not self-intersect. Points exactly on an edge may be reported either
// way. Mismatched or short vertex slices yield false.
func IsInside(x, y float64, vx, vy []float64) bool {
	n := len(vx)
	if n < 3 || len(vy) != n {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		if (vx[i] > x) != (vx[j] > x) {
			// y of edge (i,j) at abscissa x.
			yEdge := (x-vx[i])*(vy[i]-vy[j])/(vx[i]-vx[j]) + vy[i]
			if y < yEdge {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Polygon is an immutable closed polygon.
type Polygon struct {
	xs, ys []float64
}

// New builds a Polygon from its vertices in order.
func New(vertices []r2.Point) Polygon {
	p := Polygon{
		xs: make([]float64, len(vertices)),
		ys: make([]float64, len(vertices)),
	}
	for i, v := range vertices {
		p.xs[i] = v.X
		p.ys[i] = v.Y
	}
	return p
}

// FromXY builds a Polygon from parallel coordinate slices.
func FromXY(xs, ys []float64) Polygon {
	p := Polygon{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	return p
}

// Contains reports whether pt is inside p.
func (p Polygon) Contains(pt r2.Point) bool {
	return IsInside(pt.X, pt.Y, p.xs, p.ys)
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.xs)
}

// Vertices returns a copy of the vertices.
func (p Polygon) Vertices() []r2.Point {
	out := make([]r2.Point, len(p.xs))
	for i := range p.xs {
		out[i] = r2.Point{X: p.xs[i], Y: p.ys[i]}
	}
	return out
}

// Bound returns the smallest axis-aligned rectangle containing p.
func (p Polygon) Bound() r2.Rect {
	return r2.RectFromPoints(p.Vertices()...)
}
