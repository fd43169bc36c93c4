// Package layout holds the fixed focal-plane geometry of the K2 photometer:
// the four corner directions of every readout channel with the boresight
// along +x and zero roll.
//
// The table is static data loaded once per process. A Layout is immutable
// and may be shared by any number of goroutines.
package layout

import (
	"bufio"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/mrtommyb/K2fov/internal/rotation"
)

//go:embed data/channel_corners.csv
var channelCornersCSV string

const (
	// NumChannels is the number of readout channels including the four
	// fine guidance sensors.
	NumChannels = 88

	// MaxScienceChannel is the highest science channel; 85-88 are FGS.
	MaxScienceChannel = 84

	cornersPerChannel = 4
)

// ErrInvalidLayout is returned when a corner table is incomplete or malformed.
var ErrInvalidLayout = errors.New("invalid channel layout")

// Corner is one corner of a channel footprint in the unrotated frame.
type Corner struct {
	Module  int
	Output  int
	Channel int
	Vector  r3.Vector
}

// SkyCorner is a channel corner placed on the sky for a particular pointing.
type SkyCorner struct {
	Module  int     `json:"module"`
	Output  int     `json:"output"`
	Channel int     `json:"channel"`
	RA      float64 `json:"ra"`
	Dec     float64 `json:"dec"`
}

// Layout is the parsed corner table, ordered by channel then corner index.
type Layout struct {
	corners []Corner
}

var (
	defaultOnce   sync.Once
	defaultLayout *Layout
	defaultErr    error
)

// Default returns the embedded K2 layout, parsing it on first use.
func Default() (*Layout, error) {
	defaultOnce.Do(func() {
		defaultLayout, defaultErr = Parse(strings.NewReader(channelCornersCSV))
	})
	return defaultLayout, defaultErr
}

// Parse reads a corner table of "module,output,channel,x,y,z" rows. Lines
// starting with '#' are ignored. Every channel 1-88 must have exactly four
// corners, listed in footprint order.
func Parse(r io.Reader) (*Layout, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comment = '#'
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true

	var corners []Corner
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading corner table: %w", err)
		}

		c, err := parseCorner(rec)
		if err != nil {
			return nil, fmt.Errorf("corner row %d: %w", line, err)
		}
		corners = append(corners, c)
	}

	// Stable sort keeps the corner order within each channel.
	sort.SliceStable(corners, func(i, j int) bool {
		return corners[i].Channel < corners[j].Channel
	})

	if err := validate(corners); err != nil {
		return nil, err
	}
	return &Layout{corners: corners}, nil
}

func parseCorner(rec []string) (Corner, error) {
	var ints [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(rec[i])
		if err != nil {
			return Corner{}, fmt.Errorf("%w: field %d %q", ErrInvalidLayout, i+1, rec[i])
		}
		ints[i] = n
	}
	var v [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(rec[3+i], 64)
		if err != nil {
			return Corner{}, fmt.Errorf("%w: field %d %q", ErrInvalidLayout, 4+i, rec[3+i])
		}
		v[i] = f
	}

	vec := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	if vec.Norm() == 0 {
		return Corner{}, fmt.Errorf("%w: zero-length corner vector", ErrInvalidLayout)
	}
	return Corner{Module: ints[0], Output: ints[1], Channel: ints[2], Vector: vec.Normalize()}, nil
}

func validate(corners []Corner) error {
	counts := make(map[int]int, NumChannels)
	for _, c := range corners {
		if err := ValidateChannel(c.Channel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
		want, err := ChannelFromModOut(c.Module, c.Output)
		if err != nil || want != c.Channel {
			return fmt.Errorf("%w: module %d output %d listed as channel %d", ErrInvalidLayout, c.Module, c.Output, c.Channel)
		}
		counts[c.Channel]++
	}
	for ch := 1; ch <= NumChannels; ch++ {
		if counts[ch] != cornersPerChannel {
			return fmt.Errorf("%w: channel %d has %d corners", ErrInvalidLayout, ch, counts[ch])
		}
	}
	return nil
}

// Corners returns a copy of the unrotated corner table.
func (l *Layout) Corners() []Corner {
	out := make([]Corner, len(l.corners))
	copy(out, l.corners)
	return out
}

// Rotate places the layout on the sky with the boresight at (ra, dec) and
// the focal plane rolled by roll degrees about the boresight.
func (l *Layout) Rotate(ra, dec, roll float64) []SkyCorner {
	m := rotation.Pointing(ra, dec, roll)

	out := make([]SkyCorner, len(l.corners))
	for i, c := range l.corners {
		cra, cdec := rotation.RaDecFromVector(rotation.Apply(m, c.Vector))
		out[i] = SkyCorner{
			Module:  c.Module,
			Output:  c.Output,
			Channel: c.Channel,
			RA:      cra,
			Dec:     cdec,
		}
	}
	return out
}
