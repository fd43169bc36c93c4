package fov

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/mrtommyb/K2fov/internal/layout"
)

// Pixel ranges of the science and FGS arrays. The layout corners sit on
// pixels (17, 25) and (1106, 1038) of a science channel, inside the
// science envelope of columns 12-1111 and rows 20-1043.
const (
	cornerColMin = 17.0
	cornerColMax = 1106.0
	cornerRowMin = 25.0
	cornerRowMax = 1038.0

	scienceColMin = 12.0
	scienceColMax = 1111.0
	scienceRowMin = 20.0
	scienceRowMax = 1043.0

	fgsCols   = 547.0
	fgsRows   = 527.0
	fgsColMin = 12.0
)

const (
	// DefaultPadding is the science-pixel padding used when none is given.
	// Positive padding accepts positions slightly off the envelope.
	DefaultPadding = 3.0

	// DefaultFGSPadding is the FGS-pixel padding. FGS tests are
	// conservative: negative padding demands that many pixels of margin.
	DefaultFGSPadding = -50.0

	// DefaultNearSiliconSep is the radius in degrees used by NearSilicon.
	DefaultNearSiliconSep = 8.2
)

var (
	scienceEnvelope = r2.Rect{
		X: r1.Interval{Lo: scienceColMin, Hi: scienceColMax},
		Y: r1.Interval{Lo: scienceRowMin, Hi: scienceRowMax},
	}
	fgsEnvelope = r2.Rect{
		X: r1.Interval{Lo: fgsColMin, Hi: fgsCols},
		Y: r1.Interval{Lo: 0, Hi: fgsRows},
	}
)

// PixelCoordinate is a one-offset position on a channel. The zero value
// means "no channel".
type PixelCoordinate struct {
	Channel int     `json:"channel"`
	Col     float64 `json:"col"`
	Row     float64 `json:"row"`
}

// ChannelColRow returns the channel and one-offset column and row of
// (ra, dec). Off-channel column and row values are returned as computed;
// the second result is false, with a zero PixelCoordinate, only when no
// channel can be found.
func (f *FieldOfView) ChannelColRow(ra, dec float64) (PixelCoordinate, bool) {
	pc, err := f.locate(ra, dec)
	if err != nil {
		f.logger.Warn("position not on any channel", "ra", ra, "dec", dec, "error", err)
		return PixelCoordinate{}, false
	}
	return pc, true
}

// locate projects (ra, dec) once and places it on the nearest channel.
func (f *FieldOfView) locate(ra, dec float64) (PixelCoordinate, error) {
	pt, err := f.project(ra, dec)
	if err != nil {
		return PixelCoordinate{}, err
	}
	ch, err := f.nearestChannel(ra, dec)
	if err != nil {
		return PixelCoordinate{}, err
	}
	return f.pixelAt(pt, ch)
}

// ChannelColRowStrict is ChannelColRow that fails instead of returning
// illegal pixels. Errors wrap ErrNoChannel or, as a *PixelError,
// ErrOffSilicon. The envelope test uses zero-offset pixels and the default
// padding of the channel type.
func (f *FieldOfView) ChannelColRowStrict(ra, dec float64) (PixelCoordinate, error) {
	pc, err := f.locate(ra, dec)
	if err != nil {
		return PixelCoordinate{}, err
	}
	ch := pc.Channel

	col0, row0 := pc.Col-1, pc.Row-1
	var ok bool
	if layout.IsFGS(ch) {
		ok = ColRowIsOnFgsPixel(col0, row0, DefaultFGSPadding)
	} else {
		ok = ColRowIsOnSciencePixel(col0, row0, DefaultPadding)
	}
	if !ok {
		return PixelCoordinate{}, &PixelError{RA: ra, Dec: dec, Channel: ch, Col: col0, Row: row0, Err: ErrOffSilicon}
	}
	return pc, nil
}

// ColRowWithinChannel returns the one-offset pixel position of (ra, dec)
// in the frame of channel ch, which need not contain the position.
func (f *FieldOfView) ColRowWithinChannel(ra, dec float64, ch int) (PixelCoordinate, error) {
	if err := layout.ValidateChannel(ch); err != nil {
		return PixelCoordinate{}, err
	}
	pt, err := f.project(ra, dec)
	if err != nil {
		return PixelCoordinate{}, err
	}
	return f.pixelAt(pt, ch)
}

// pixelAt converts tangent-plane point pt to a pixel of channel ch.
func (f *FieldOfView) pixelAt(pt r2.Point, ch int) (PixelCoordinate, error) {
	colFrac, rowFrac, err := f.fractions(ch, pt)
	if err != nil {
		return PixelCoordinate{}, err
	}

	var col, row float64
	if layout.IsFGS(ch) {
		col = colFrac * fgsCols
		row = rowFrac * fgsRows
	} else {
		col = colFrac*(cornerColMax-cornerColMin) + cornerColMin
		row = rowFrac*(cornerRowMax-cornerRowMin) + cornerRowMin
	}

	// One-offset pixels.
	return PixelCoordinate{Channel: ch, Col: col + 1, Row: row + 1}, nil
}

// fractions decomposes pt along the channel's column and row edges.
func (f *FieldOfView) fractions(ch int, pt r2.Point) (colFrac, rowFrac float64, err error) {
	g := &f.geom[ch-1]
	if !(g.colNorm2 >= minEdgeNorm2) || !(g.rowNorm2 >= minEdgeNorm2) {
		return 0, 0, fmt.Errorf("channel %d: %w", ch, ErrDegenerateChannel)
	}
	r := pt.Sub(g.origin)
	return r.Dot(g.colEdge) / g.colNorm2, r.Dot(g.rowEdge) / g.rowNorm2, nil
}

// RaDecForChannelColRow returns the sky position of one-offset pixel
// (col, row) on channel ch. It inverts ChannelColRow.
func (f *FieldOfView) RaDecForChannelColRow(ch int, col, row float64) (ra, dec float64, err error) {
	if err := layout.ValidateChannel(ch); err != nil {
		return 0, 0, err
	}
	if !isFinite(col) || !isFinite(row) {
		return 0, 0, fmt.Errorf("channel %d [%v %v]: %w", ch, col, row, ErrInvalidPixel)
	}

	col--
	row--
	var colFrac, rowFrac float64
	if layout.IsFGS(ch) {
		colFrac = col / fgsCols
		rowFrac = row / fgsRows
	} else {
		colFrac = (col - cornerColMin) / (cornerColMax - cornerColMin)
		rowFrac = (row - cornerRowMin) / (cornerRowMax - cornerRowMin)
	}

	g := &f.geom[ch-1]
	pt := g.origin.Add(g.colEdge.Mul(colFrac)).Add(g.rowEdge.Mul(rowFrac))
	return f.proj.PixToSky(pt)
}

// ChannelCenter returns the sky position of the middle of ch's pixel array.
func (f *FieldOfView) ChannelCenter(ch int) (ra, dec float64, err error) {
	if layout.IsFGS(ch) {
		return f.RaDecForChannelColRow(ch, fgsCols/2+1, fgsRows/2+1)
	}
	return f.RaDecForChannelColRow(ch, (scienceColMin+scienceColMax)/2, (scienceRowMin+scienceRowMax)/2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScienceEnvelope returns the one-offset column (X) and row (Y) ranges of
// science pixels on a channel.
func ScienceEnvelope() r2.Rect {
	return scienceEnvelope
}

// ColRowIsOnSciencePixel reports whether (col, row) lies in the science
// envelope grown by padding pixels on every side. Negative padding shrinks
// the envelope.
func ColRowIsOnSciencePixel(col, row, padding float64) bool {
	env := scienceEnvelope.ExpandedByMargin(padding)
	return env.ContainsPoint(r2.Point{X: col, Y: row})
}

// ColRowIsOnFgsPixel reports whether (col, row) lies on an FGS array. With
// negative padding the position must be at least that many pixels from
// the edge; callers normally pass DefaultFGSPadding.
func ColRowIsOnFgsPixel(col, row, padding float64) bool {
	env := fgsEnvelope.ExpandedByMargin(padding)
	return env.ContainsPoint(r2.Point{X: col, Y: row})
}
