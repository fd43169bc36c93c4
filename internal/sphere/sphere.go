// Package sphere provides great-circle calculations on the unit celestial
// sphere.
//
// All functions accept and return degrees. Separations are computed from
// unit vectors as atan2(|a×b|, a·b), which stays accurate for coincident and
// antipodal points where the arccos form loses precision.
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// UnitVector returns the Cartesian unit vector for (ra, dec) in degrees.
func UnitVector(ra, dec float64) r3.Vector {
	sa, ca := math.Sincos(ra * deg2rad)
	sd, cd := math.Sincos(dec * deg2rad)
	return r3.Vector{X: ca * cd, Y: sa * cd, Z: sd}
}

// AngularSeparation returns the great-circle distance in degrees between
// (ra1, dec1) and (ra2, dec2).
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	a := UnitVector(ra1, dec1)
	b := UnitVector(ra2, dec2)
	return a.Angle(b).Degrees()
}

// Bearing returns the initial bearing in degrees, measured east of north in
// [0, 360), of the great circle from (ra1, dec1) towards (ra2, dec2).
func Bearing(ra1, dec1, ra2, dec2 float64) float64 {
	dec0 := dec1 * deg2rad
	dec2r := dec2 * deg2rad
	dLong := (ra2 - ra1) * deg2rad

	a := math.Sin(dLong) * math.Cos(dec2r)
	b := math.Cos(dec0)*math.Sin(dec2r) - math.Sin(dec0)*math.Cos(dec2r)*math.Cos(dLong)

	bearing := math.Atan2(a, b) * rad2deg
	return normalizeDegrees(bearing)
}

// Destination returns the point reached by travelling dist degrees along
// the great circle leaving (ra0, dec0) at the given bearing.
func Destination(ra0, dec0, bearing, dist float64) (ra, dec float64) {
	d0 := dec0 * deg2rad
	b := bearing * deg2rad
	delta := dist * deg2rad

	sinDec := math.Sin(d0)*math.Cos(delta) + math.Cos(d0)*math.Sin(delta)*math.Cos(b)
	dec1 := math.Asin(clamp(sinDec, -1, 1))

	dRa := math.Atan2(math.Sin(b)*math.Sin(delta)*math.Cos(d0),
		math.Cos(delta)-math.Sin(d0)*sinDec)

	return normalizeDegrees(ra0 + dRa*rad2deg), dec1 * rad2deg
}

func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
