// Package region tests membership of channel pixels in irregular detector
// regions such as the campaign 9 microlensing superstamp.
//
// A region is a set of polygons in one-offset column/row space, keyed by
// channel. A channel may carry several disjoint polygons, and a second
// table of late additions is consulted after the primary one.
package region

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/r2"

	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/polygon"
)

//go:embed data/c9_superstamp.json
var c9SuperstampJSON string

// ErrInvalidMask is returned for malformed region definitions.
var ErrInvalidMask = errors.New("invalid region mask")

// PolygonDef is one polygon of a region definition file.
type PolygonDef struct {
	Col []float64 `json:"col"`
	Row []float64 `json:"row"`
}

// Definition is the on-disk form of a region mask.
type Definition struct {
	Campaign      int                     `json:"campaign"`
	Description   string                  `json:"description"`
	Channels      map[string][]PolygonDef `json:"channels"`
	LateAdditions map[string][]PolygonDef `json:"late_additions,omitempty"`
}

// Mask is an immutable region definition.
type Mask struct {
	campaign    int
	description string
	primary     map[int][]polygon.Polygon
	late        map[int][]polygon.Polygon
}

var (
	c9Once sync.Once
	c9Mask *Mask
	c9Err  error
)

// C9Superstamp returns the embedded campaign 9 microlensing superstamp.
func C9Superstamp() (*Mask, error) {
	c9Once.Do(func() {
		c9Mask, c9Err = Parse(strings.NewReader(c9SuperstampJSON))
	})
	return c9Mask, c9Err
}

// Parse decodes a JSON region definition.
func Parse(r io.Reader) (*Mask, error) {
	var def Definition
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMask, err)
	}
	return NewMask(def)
}

// NewMask validates def and builds a Mask from it.
func NewMask(def Definition) (*Mask, error) {
	primary, err := buildTable(def.Channels)
	if err != nil {
		return nil, err
	}
	late, err := buildTable(def.LateAdditions)
	if err != nil {
		return nil, err
	}
	return &Mask{
		campaign:    def.Campaign,
		description: def.Description,
		primary:     primary,
		late:        late,
	}, nil
}

func buildTable(defs map[string][]PolygonDef) (map[int][]polygon.Polygon, error) {
	out := make(map[int][]polygon.Polygon, len(defs))
	for key, polys := range defs {
		ch, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: channel key %q", ErrInvalidMask, key)
		}
		if err := layout.ValidateChannel(ch); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMask, err)
		}
		for i, p := range polys {
			if len(p.Col) < 3 || len(p.Col) != len(p.Row) {
				return nil, fmt.Errorf("%w: channel %d polygon %d has %d cols and %d rows",
					ErrInvalidMask, ch, i, len(p.Col), len(p.Row))
			}
			out[ch] = append(out[ch], polygon.FromXY(p.Col, p.Row))
		}
	}
	return out, nil
}

// Campaign returns the campaign the mask belongs to.
func (m *Mask) Campaign() int {
	return m.campaign
}

// Description returns the free-text description of the region.
func (m *Mask) Description() string {
	return m.description
}

// Channels returns the channels with at least one polygon, ascending.
func (m *Mask) Channels() []int {
	seen := make(map[int]bool)
	for ch := range m.primary {
		seen[ch] = true
	}
	for ch := range m.late {
		seen[ch] = true
	}
	out := make([]int, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// IsInRegion reports whether one-offset pixel (col, row) on channel ch is
// inside any polygon of the region.
func (m *Mask) IsInRegion(ch int, col, row float64) bool {
	pt := r2.Point{X: col, Y: row}
	for _, p := range m.primary[ch] {
		if p.Contains(pt) {
			return true
		}
	}
	for _, p := range m.late[ch] {
		if p.Contains(pt) {
			return true
		}
	}
	return false
}

// IsInRegionWithPadding reports whether (col, row) and its four neighbours
// padding pixels away along each axis are all in the region. Neighbours are
// clamped to the science envelope, so the region is eroded by padding
// pixels except along the edges of the chip.
func (m *Mask) IsInRegionWithPadding(ch int, col, row, padding float64) bool {
	env := fov.ScienceEnvelope()
	pts := [5]r2.Point{
		{X: col, Y: row},
		{X: env.X.ClampPoint(col - padding), Y: row},
		{X: env.X.ClampPoint(col + padding), Y: row},
		{X: col, Y: env.Y.ClampPoint(row - padding)},
		{X: col, Y: env.Y.ClampPoint(row + padding)},
	}
	for _, p := range pts {
		if !m.IsInRegion(ch, p.X, p.Y) {
			return false
		}
	}
	return true
}
