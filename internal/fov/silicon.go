package fov

import (
	"fmt"

	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/sphere"
)

// IsOnSilicon reports whether (ra, dec) falls on a working science pixel.
// Positions up to padding pixels off the edge of a channel count as on.
func (f *FieldOfView) IsOnSilicon(ra, dec, padding float64) bool {
	// No channel reaches 90° from the boresight.
	if sphere.AngularSeparation(f.pointing.RA, f.pointing.Dec, ra, dec) >= 90 {
		return false
	}

	pc, ok := f.ChannelColRow(ra, dec)
	if !ok {
		return false
	}
	if f.broken.Contains(pc.Channel) {
		return false
	}
	if pc.Channel > layout.MaxScienceChannel {
		return false
	}
	return ColRowIsOnSciencePixel(pc.Col, pc.Row, padding)
}

// NearSilicon reports whether (ra, dec) is within maxSep degrees of the
// boresight. It ignores channel geometry.
func (f *FieldOfView) NearSilicon(ra, dec, maxSep float64) bool {
	return sphere.AngularSeparation(f.pointing.RA, f.pointing.Dec, ra, dec) <= maxSep
}

// IsOnSiliconList applies IsOnSilicon to parallel slices of positions.
func (f *FieldOfView) IsOnSiliconList(ras, decs []float64, padding float64) ([]bool, error) {
	if len(ras) != len(decs) {
		return nil, fmt.Errorf("%w: %d ra, %d dec", ErrLengthMismatch, len(ras), len(decs))
	}
	out := make([]bool, len(ras))
	for i := range ras {
		out[i] = f.IsOnSilicon(ras[i], decs[i], padding)
	}
	return out, nil
}

// ChannelColRowList applies ChannelColRow to parallel slices of positions.
// Positions on no channel yield a zero PixelCoordinate.
func (f *FieldOfView) ChannelColRowList(ras, decs []float64) ([]PixelCoordinate, error) {
	if len(ras) != len(decs) {
		return nil, fmt.Errorf("%w: %d ra, %d dec", ErrLengthMismatch, len(ras), len(decs))
	}
	out := make([]PixelCoordinate, len(ras))
	for i := range ras {
		out[i], _ = f.ChannelColRow(ras[i], decs[i])
	}
	return out, nil
}

// RaDecForChannelColRowList applies RaDecForChannelColRow to each pixel.
func (f *FieldOfView) RaDecForChannelColRowList(pixels []PixelCoordinate) (ras, decs []float64, err error) {
	ras = make([]float64, len(pixels))
	decs = make([]float64, len(pixels))
	for i, p := range pixels {
		ras[i], decs[i], err = f.RaDecForChannelColRow(p.Channel, p.Col, p.Row)
		if err != nil {
			return nil, nil, fmt.Errorf("pixel %d: %w", i, err)
		}
	}
	return ras, decs, nil
}
