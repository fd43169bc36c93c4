// Package catalog reads target lists, classifies them against a field of
// view and writes the flagged result.
package catalog

import (
	"errors"
	"fmt"
)

// Flag is the silicon classification of one target.
type Flag int

const (
	// NotOnSilicon targets are far from the field.
	NotOnSilicon Flag = 0
	// NearSilicon targets are within the near-silicon radius of the
	// boresight but did not land on a working science channel.
	NearSilicon Flag = 1
	// OnSilicon targets land on a working science channel.
	OnSilicon Flag = 2
)

func (f Flag) String() string {
	switch f {
	case NotOnSilicon:
		return "not_on_silicon"
	case NearSilicon:
		return "near_silicon"
	case OnSilicon:
		return "on_silicon"
	}
	return fmt.Sprintf("flag(%d)", int(f))
}

// Target is one catalog row. Line is the 1-based input line it came from.
type Target struct {
	Line int     `json:"line"`
	RA   float64 `json:"ra"`
	Dec  float64 `json:"dec"`
	Mag  float64 `json:"mag"`
}

// Classified is a target with its silicon flag.
type Classified struct {
	Target
	Flag Flag `json:"flag"`
}

// ErrMalformedRow is returned for rows that are not "ra, dec, mag".
var ErrMalformedRow = errors.New("malformed catalog row")

// RowError reports a malformed row.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedRow, e.Reason)
}

func (e *RowError) Unwrap() error {
	return ErrMalformedRow
}
