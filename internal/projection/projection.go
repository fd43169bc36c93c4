// Package projection maps sky coordinates onto a plane and back.
//
// Gnomonic is the projection used by the field-of-view engine. The others
// exist for drawing finder charts and are interchangeable behind the
// Projection interface.
package projection

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/mrtommyb/K2fov/internal/rotation"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// ErrNotProjectable is returned for sky positions a projection cannot map,
// e.g. points at or beyond 90° from a gnomonic tangent point.
var ErrNotProjectable = errors.New("point not projectable")

// ErrNoInverse is returned by projections that only map sky to plane.
var ErrNoInverse = errors.New("projection has no inverse")

// Projection converts between (ra, dec) in degrees and plane coordinates.
type Projection interface {
	SkyToPix(ra, dec float64) (r2.Point, error)
	PixToSky(p r2.Point) (ra, dec float64, err error)
}

// PlateCarree maps (ra, dec) directly onto (x, y) in degrees.
type PlateCarree struct{}

func (PlateCarree) SkyToPix(ra, dec float64) (r2.Point, error) {
	return r2.Point{X: ra, Y: dec}, nil
}

func (PlateCarree) PixToSky(p r2.Point) (float64, float64, error) {
	return p.X, p.Y, nil
}

// Cylindrical is the Lambert equal-area cylindrical projection:
// x = ra in radians, y = sin(dec).
type Cylindrical struct{}

func (Cylindrical) SkyToPix(ra, dec float64) (r2.Point, error) {
	return r2.Point{X: ra * deg2rad, Y: math.Sin(dec * deg2rad)}, nil
}

func (Cylindrical) PixToSky(p r2.Point) (float64, float64, error) {
	if p.Y < -1 || p.Y > 1 {
		return 0, 0, ErrNotProjectable
	}
	return p.X * rad2deg, math.Asin(p.Y) * rad2deg, nil
}

// HammerAitoff is the equal-area all-sky projection about a chosen centre.
// x increases towards the west, matching Gnomonic. Its inverse is not
// implemented.
type HammerAitoff struct {
	RA0, Dec0 float64

	toCentre *mat.Dense
}

// NewHammerAitoff returns the Hammer-Aitoff projection centred on
// (ra0, dec0).
func NewHammerAitoff(ra0, dec0 float64) *HammerAitoff {
	return &HammerAitoff{
		RA0:      ra0,
		Dec0:     dec0,
		toCentre: rotation.Compose(rotation.RotateY(dec0), rotation.RotateZ(-ra0)),
	}
}

func (h *HammerAitoff) SkyToPix(ra, dec float64) (r2.Point, error) {
	lon, lat := rotation.RaDecFromVector(rotation.Apply(h.toCentre, rotation.VectorFromRaDec(ra, dec)))
	if lon >= 180 {
		lon -= 360
	}
	l := lon * deg2rad
	b := lat * deg2rad

	gamma := math.Sqrt(2 / (1 + math.Cos(b)*math.Cos(l/2)))
	x := -2 * gamma * math.Cos(b) * math.Sin(l/2)
	y := gamma * math.Sin(b)
	return r2.Point{X: x, Y: y}, nil
}

func (h *HammerAitoff) PixToSky(r2.Point) (float64, float64, error) {
	return 0, 0, ErrNoInverse
}
