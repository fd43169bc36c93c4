// Package rotation builds 3×3 rotation matrices about the principal axes and
// converts between celestial coordinates and Cartesian unit vectors.
//
// Conventions: +x points at (ra=0, dec=0), +y at (ra=90, dec=0) and +z at the
// north celestial pole. All angles are in degrees. A focal plane defined with
// its boresight along +x is placed on the sky by
//
//	R = RA(ra) · Dec(dec) · Roll(roll)
//
// so the roll is applied in the instrument frame before the boresight is
// slewed to its sky position.
package rotation

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// RotateX returns the right-handed rotation by theta degrees about the x axis.
func RotateX(theta float64) *mat.Dense {
	s, c := math.Sincos(theta * deg2rad)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// RotateY returns the right-handed rotation by theta degrees about the y axis.
func RotateY(theta float64) *mat.Dense {
	s, c := math.Sincos(theta * deg2rad)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// RotateZ returns the right-handed rotation by theta degrees about the z axis.
func RotateZ(theta float64) *mat.Dense {
	s, c := math.Sincos(theta * deg2rad)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// RA rotates the +x axis eastward along the equator to right ascension ra.
func RA(ra float64) *mat.Dense {
	return RotateZ(ra)
}

// Dec pitches the +x axis up to declination dec.
func Dec(dec float64) *mat.Dense {
	return RotateY(-dec)
}

// Roll rotates about the boresight (+x) axis.
func Roll(roll float64) *mat.Dense {
	return RotateX(roll)
}

// Slew returns RA(ra)·Dec(dec), taking +x to (ra, dec).
func Slew(ra, dec float64) *mat.Dense {
	return Compose(RA(ra), Dec(dec))
}

// Pointing returns the full instrument-to-sky rotation Slew(ra, dec)·Roll(roll).
func Pointing(ra, dec, roll float64) *mat.Dense {
	return Compose(RA(ra), Dec(dec), Roll(roll))
}

// Compose multiplies the matrices left to right. Compose(a, b, c) is a·b·c,
// so c is the first rotation applied to a vector.
func Compose(ms ...mat.Matrix) *mat.Dense {
	out := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	for _, m := range ms {
		next := mat.NewDense(3, 3, nil)
		next.Mul(out, m)
		out = next
	}
	return out
}

// Apply returns m·v.
func Apply(m mat.Matrix, v r3.Vector) r3.Vector {
	in := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var out mat.VecDense
	out.MulVec(m, in)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// VectorFromRaDec returns the unit vector pointing at (ra, dec).
func VectorFromRaDec(ra, dec float64) r3.Vector {
	sa, ca := math.Sincos(ra * deg2rad)
	sd, cd := math.Sincos(dec * deg2rad)
	return r3.Vector{X: ca * cd, Y: sa * cd, Z: sd}
}

// RaDecFromVector converts a vector of any non-zero length to (ra, dec) with
// ra in [0, 360). A vector along either pole has no defined right ascension
// and returns ra=0.
func RaDecFromVector(v r3.Vector) (ra, dec float64) {
	n := v.Norm()
	if n == 0 {
		return 0, 0
	}
	dec = math.Asin(math.Max(-1, math.Min(1, v.Z/n))) * rad2deg

	if math.Hypot(v.X, v.Y) == 0 {
		return 0, dec
	}
	ra = math.Atan2(v.Y, v.X) * rad2deg
	if ra < 0 {
		ra += 360
	}
	if ra >= 360 {
		ra -= 360
	}
	return ra, dec
}
