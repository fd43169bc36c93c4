package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/mrtommyb/K2fov/internal/sphere"
)

func TestGnomonicTangentPointIsOrigin(t *testing.T) {
	g := NewGnomonic(270.3544823, -21.7798098)
	p, err := g.SkyToPix(270.3544823, -21.7798098)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Norm() > 1e-12 {
		t.Errorf("tangent point projects to %v, want origin", p)
	}
}

func TestGnomonicOrientation(t *testing.T) {
	g := NewGnomonic(0, 0)

	north, _ := g.SkyToPix(0, 1)
	if north.Y <= 0 || math.Abs(north.X) > 1e-12 {
		t.Errorf("north point projects to %v, want +y", north)
	}
	east, _ := g.SkyToPix(1, 0)
	if east.X >= 0 || math.Abs(east.Y) > 1e-12 {
		t.Errorf("east point projects to %v, want -x", east)
	}
	// tan(separation) is the radial distance.
	if math.Abs(north.Norm()-math.Tan(1*deg2rad)) > 1e-12 {
		t.Errorf("radius = %v, want tan(1°)", north.Norm())
	}
}

func TestGnomonicRoundTrip(t *testing.T) {
	centres := [][2]float64{{0, 0}, {98.2964079, 21.5878901}, {336.665, -11.097}, {180, 85}}
	for _, c := range centres {
		g := NewGnomonic(c[0], c[1])
		for bearing := 0.0; bearing < 360; bearing += 30 {
			for _, dist := range []float64{0.01, 1, 8, 45, 88.9} {
				ra, dec := sphere.Destination(c[0], c[1], bearing, dist)
				p, err := g.SkyToPix(ra, dec)
				if err != nil {
					t.Fatalf("SkyToPix(%v, %v): %v", ra, dec, err)
				}
				ra2, dec2, err := g.PixToSky(p)
				if err != nil {
					t.Fatalf("PixToSky: %v", err)
				}
				if sep := sphere.AngularSeparation(ra, dec, ra2, dec2); sep > 1e-6 {
					t.Errorf("centre %v bearing %v dist %v: round trip off by %v deg", c, bearing, dist, sep)
				}
			}
		}
	}
}

func TestGnomonicNotProjectable(t *testing.T) {
	g := NewGnomonic(10, 20)
	tests := []struct {
		name    string
		ra, dec float64
	}{
		{"antipode", 190, -20},
		{"just beyond 90 degrees", 100, -1},
		{"behind the plane", 150, -30},
		{"NaN ra", math.NaN(), 20},
		{"NaN dec", 10, math.NaN()},
		{"infinite ra", math.Inf(-1), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.SkyToPix(tt.ra, tt.dec)
			if !errors.Is(err, ErrNotProjectable) {
				t.Errorf("err = %v, want ErrNotProjectable", err)
			}
		})
	}
}

func TestPlateCarree(t *testing.T) {
	var p Projection = PlateCarree{}
	pt, _ := p.SkyToPix(12.5, -3)
	if pt != (r2.Point{X: 12.5, Y: -3}) {
		t.Errorf("SkyToPix = %v", pt)
	}
	ra, dec, _ := p.PixToSky(pt)
	if ra != 12.5 || dec != -3 {
		t.Errorf("PixToSky = (%v, %v)", ra, dec)
	}
}

func TestCylindricalRoundTrip(t *testing.T) {
	var p Projection = Cylindrical{}
	pt, _ := p.SkyToPix(200, 30)
	if math.Abs(pt.Y-0.5) > 1e-12 {
		t.Errorf("y = %v, want sin(30°)", pt.Y)
	}
	ra, dec, err := p.PixToSky(pt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ra-200) > 1e-9 || math.Abs(dec-30) > 1e-9 {
		t.Errorf("round trip = (%v, %v)", ra, dec)
	}
	if _, _, err := p.PixToSky(r2.Point{Y: 1.5}); !errors.Is(err, ErrNotProjectable) {
		t.Errorf("err = %v, want ErrNotProjectable", err)
	}
}

func TestHammerAitoff(t *testing.T) {
	var p Projection = NewHammerAitoff(0, 0)
	origin, _ := p.SkyToPix(0, 0)
	if origin.Norm() > 1e-12 {
		t.Errorf("origin = %v", origin)
	}
	pole, _ := p.SkyToPix(0, 90)
	if math.Abs(pole.Y-math.Sqrt2) > 1e-9 {
		t.Errorf("pole y = %v, want sqrt(2)", pole.Y)
	}
	edge, _ := p.SkyToPix(179.999999, 0)
	if math.Abs(edge.X+2*math.Sqrt2) > 1e-6 {
		t.Errorf("edge x = %v, want -2*sqrt(2)", edge.X)
	}
	west, _ := p.SkyToPix(350, 0)
	if west.X <= 0 {
		t.Errorf("ra 350 x = %v, want positive", west.X)
	}
	if _, _, err := p.PixToSky(r2.Point{}); !errors.Is(err, ErrNoInverse) {
		t.Errorf("err = %v, want ErrNoInverse", err)
	}
}

func TestHammerAitoffCentre(t *testing.T) {
	h := NewHammerAitoff(270.3544823, -21.7798098)
	centre, _ := h.SkyToPix(270.3544823, -21.7798098)
	if centre.Norm() > 1e-9 {
		t.Errorf("centre = %v, want origin", centre)
	}
	east, _ := h.SkyToPix(280.3544823, -21.7798098)
	if east.X >= 0 {
		t.Errorf("east of centre x = %v, want negative", east.X)
	}
	north, _ := h.SkyToPix(270.3544823, -11.7798098)
	if north.Y <= 0 || math.Abs(north.X) > 1e-9 {
		t.Errorf("north of centre = %v", north)
	}
}
