package projection

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/mrtommyb/K2fov/internal/rotation"
)

// Gnomonic is the tangent-plane projection about (RA0, Dec0). Plane
// coordinates are tangent-plane units (radians at the tangent point) with
// x increasing towards the west and y towards the north.
type Gnomonic struct {
	RA0, Dec0 float64

	toTangent   *mat.Dense // sky -> frame with the tangent point on +x
	fromTangent mat.Matrix
}

// NewGnomonic returns the gnomonic projection about (ra0, dec0).
func NewGnomonic(ra0, dec0 float64) *Gnomonic {
	m := rotation.Compose(rotation.RotateY(dec0), rotation.RotateZ(-ra0))
	return &Gnomonic{
		RA0:         ra0,
		Dec0:        dec0,
		toTangent:   m,
		fromTangent: m.T(),
	}
}

// SkyToPix projects (ra, dec). Points 90° or more from the tangent point
// return ErrNotProjectable.
func (g *Gnomonic) SkyToPix(ra, dec float64) (r2.Point, error) {
	a := rotation.Apply(g.toTangent, rotation.VectorFromRaDec(ra, dec))

	// theta is the elevation above the plane normal to the tangent direction.
	theta := math.Atan2(a.X, math.Hypot(a.Y, a.Z))
	if !(theta > 0) {
		return r2.Point{}, fmt.Errorf("(%.6f, %.6f) from tangent point (%.6f, %.6f): %w",
			ra, dec, g.RA0, g.Dec0, ErrNotProjectable)
	}

	phi := math.Atan2(a.Z, a.Y)
	r := 1 / math.Tan(theta)
	return r2.Point{X: -r * math.Cos(phi), Y: r * math.Sin(phi)}, nil
}

// PixToSky is the exact inverse of SkyToPix.
func (g *Gnomonic) PixToSky(p r2.Point) (float64, float64, error) {
	phi := math.Atan2(p.Y, -p.X)
	theta := math.Atan(p.Norm())

	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	a := r3.Vector{X: ct, Y: st * cp, Z: st * sp}

	ra, dec := rotation.RaDecFromVector(rotation.Apply(g.fromTangent, a))
	return ra, dec, nil
}
