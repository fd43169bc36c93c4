package fov

import (
	"errors"
	"fmt"

	"github.com/mrtommyb/K2fov/internal/layout"
)

var (
	// ErrNoChannel means no channel could be found for a sky position,
	// typically because it is 90° or more from the boresight.
	ErrNoChannel = errors.New("not on any channel")

	// ErrOffSilicon is returned by strict lookups when the computed pixel
	// lies outside the legal pixel envelope of its channel.
	ErrOffSilicon = errors.New("position does not lie on silicon")

	// ErrInvalidChannel is returned for channel numbers outside 1-88.
	ErrInvalidChannel = layout.ErrInvalidChannel

	// ErrDegenerateChannel is returned when a channel footprint has a
	// zero-length edge and fractional pixel coordinates are undefined.
	ErrDegenerateChannel = errors.New("degenerate channel footprint")

	// ErrInvalidPixel is returned for NaN or infinite pixel coordinates.
	ErrInvalidPixel = errors.New("pixel coordinate is not finite")

	// ErrInvalidPointing is returned for declinations outside [-90, 90].
	ErrInvalidPointing = errors.New("invalid pointing")

	// ErrLengthMismatch is returned by list operations given slices of
	// different lengths.
	ErrLengthMismatch = errors.New("input slices differ in length")
)

// PixelError describes a strict lookup that landed off silicon.
type PixelError struct {
	RA, Dec  float64
	Channel  int
	Col, Row float64
	Err      error
}

func (e *PixelError) Error() string {
	return fmt.Sprintf("(%.7f, %.7f) on channel %d at [%.1f %.1f]: %v", e.RA, e.Dec, e.Channel, e.Col, e.Row, e.Err)
}

func (e *PixelError) Unwrap() error {
	return e.Err
}
