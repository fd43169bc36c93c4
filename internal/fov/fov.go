// Package fov is the field-of-view engine: it places the channel layout on
// the sky for a pointing and converts between sky positions and channel
// pixel coordinates.
//
// A FieldOfView is immutable after construction and safe for concurrent use.
// Sky positions are projected onto the tangent plane at the boresight; each
// channel is a quadrilateral in that plane spanned by two edge vectors from
// its first corner, and pixel coordinates are linear in the fractional
// position along those edges.
package fov

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/golang/geo/r2"

	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/polygon"
	"github.com/mrtommyb/K2fov/internal/projection"
	"github.com/mrtommyb/K2fov/internal/sphere"
)

// minEdgeNorm2 is the smallest squared edge length, in tangent-plane units,
// accepted for a channel footprint.
const minEdgeNorm2 = 1e-18

// channelGeom is a channel footprint in the tangent plane.
type channelGeom struct {
	origin   r2.Point
	colEdge  r2.Point
	rowEdge  r2.Point
	colNorm2 float64
	rowNorm2 float64
	outline  polygon.Polygon
}

// FieldOfView is the focal plane placed on the sky for one pointing.
type FieldOfView struct {
	pointing Pointing
	broken   BrokenChannelSet
	corners  []layout.SkyCorner
	proj     *projection.Gnomonic
	geom     [layout.NumChannels]channelGeom
	logger   *slog.Logger
}

// New builds a FieldOfView for pointing p. The roll in p is the focal-plane
// roll; use FovRollFromSpacecraftRoll for spacecraft roll angles.
func New(p Pointing, broken BrokenChannelSet, l *layout.Layout, logger *slog.Logger) (*FieldOfView, error) {
	p, err := p.Normalized()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &FieldOfView{
		pointing: p,
		broken:   broken,
		corners:  l.Rotate(p.RA, p.Dec, p.Roll),
		proj:     projection.NewGnomonic(p.RA, p.Dec),
		logger:   logger,
	}

	var pts [layout.NumChannels][]r2.Point
	for _, c := range f.corners {
		pt, err := f.proj.SkyToPix(c.RA, c.Dec)
		if err != nil {
			return nil, fmt.Errorf("projecting channel %d corner: %w", c.Channel, err)
		}
		pts[c.Channel-1] = append(pts[c.Channel-1], pt)
	}

	for i, corner := range pts {
		g := channelGeom{
			origin:  corner[0],
			colEdge: corner[1].Sub(corner[0]),
			rowEdge: corner[3].Sub(corner[0]),
			outline: polygon.New(corner),
		}
		g.colNorm2 = g.colEdge.Dot(g.colEdge)
		g.rowNorm2 = g.rowEdge.Dot(g.rowEdge)
		// Written so NaN edges fail too.
		if !(g.colNorm2 >= minEdgeNorm2) || !(g.rowNorm2 >= minEdgeNorm2) {
			return nil, fmt.Errorf("channel %d: %w", i+1, ErrDegenerateChannel)
		}
		f.geom[i] = g
	}

	return f, nil
}

// Pointing returns the normalized pointing.
func (f *FieldOfView) Pointing() Pointing {
	return f.pointing
}

// Boresight returns the sky position of the optical axis.
func (f *FieldOfView) Boresight() (ra, dec float64) {
	return f.pointing.RA, f.pointing.Dec
}

// BrokenChannels returns the channels excluded from science.
func (f *FieldOfView) BrokenChannels() BrokenChannelSet {
	return f.broken
}

// Projection returns the tangent-plane projection centred on the boresight.
func (f *FieldOfView) Projection() projection.Projection {
	return f.proj
}

// ChannelCorners returns the sky positions of every channel corner,
// including the FGS channels 85-88.
func (f *FieldOfView) ChannelCorners() []layout.SkyCorner {
	out := make([]layout.SkyCorner, len(f.corners))
	copy(out, f.corners)
	return out
}

// ChannelPolygon returns the footprint of ch in tangent-plane coordinates.
func (f *FieldOfView) ChannelPolygon(ch int) ([]r2.Point, error) {
	if err := layout.ValidateChannel(ch); err != nil {
		return nil, err
	}
	return f.geom[ch-1].outline.Vertices(), nil
}

// PickChannel returns the channel owning the corner nearest to (ra, dec).
// Near channel edges the nearest corner can belong to a neighbour, so the
// result is a guess that ChannelColRow then places in pixel space.
func (f *FieldOfView) PickChannel(ra, dec float64) (int, error) {
	if _, err := f.project(ra, dec); err != nil {
		return 0, err
	}
	return f.nearestChannel(ra, dec)
}

// project maps (ra, dec) onto the tangent plane, wrapping failures in
// ErrNoChannel.
func (f *FieldOfView) project(ra, dec float64) (r2.Point, error) {
	pt, err := f.proj.SkyToPix(ra, dec)
	if err != nil {
		return r2.Point{}, fmt.Errorf("(%.7f, %.7f): %w: %v", ra, dec, ErrNoChannel, err)
	}
	return pt, nil
}

func (f *FieldOfView) nearestChannel(ra, dec float64) (int, error) {
	best := math.Inf(1)
	ch := 0
	for _, c := range f.corners {
		if d := sphere.AngularSeparation(c.RA, c.Dec, ra, dec); d < best {
			best = d
			ch = c.Channel
		}
	}
	if ch == 0 {
		return 0, fmt.Errorf("(%.7f, %.7f): %w", ra, dec, ErrNoChannel)
	}
	return ch, nil
}

// PickChannelByPolygon returns the channel whose footprint contains
// (ra, dec). Unlike PickChannel it reports ErrNoChannel for positions in
// the gaps between channels.
func (f *FieldOfView) PickChannelByPolygon(ra, dec float64) (int, error) {
	pt, err := f.project(ra, dec)
	if err != nil {
		return 0, err
	}
	for i := range f.geom {
		if f.geom[i].outline.Contains(pt) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("(%.7f, %.7f): %w", ra, dec, ErrNoChannel)
}
