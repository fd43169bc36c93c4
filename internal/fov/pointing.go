package fov

import (
	"fmt"
	"math"
	"sort"
)

// Offset between the spacecraft roll quoted in campaign tables and the roll
// of the focal plane about the boresight.
const spacecraftRollOffset = 13.0 + 180.0 - 90.0

// FovRollFromSpacecraftRoll converts a spacecraft roll angle to the roll of
// the focal-plane layout.
func FovRollFromSpacecraftRoll(scRoll float64) float64 {
	return scRoll + spacecraftRollOffset
}

// SpacecraftRollFromFovRoll is the inverse of FovRollFromSpacecraftRoll.
func SpacecraftRollFromFovRoll(fovRoll float64) float64 {
	return fovRoll - spacecraftRollOffset
}

// Pointing is a boresight direction and focal-plane roll, all in degrees.
type Pointing struct {
	RA   float64 `json:"ra"`
	Dec  float64 `json:"dec"`
	Roll float64 `json:"roll"`
}

// Normalized returns p with RA wrapped into [0, 360), or an error if Dec is
// outside [-90, 90] or any angle is not finite.
func (p Pointing) Normalized() (Pointing, error) {
	if !(p.Dec >= -90 && p.Dec <= 90) || math.IsNaN(p.RA) || math.IsInf(p.RA, 0) ||
		math.IsNaN(p.Roll) || math.IsInf(p.Roll, 0) {
		return Pointing{}, fmt.Errorf("%w: ra %v dec %v roll %v", ErrInvalidPointing, p.RA, p.Dec, p.Roll)
	}
	ra := math.Mod(p.RA, 360)
	if ra < 0 {
		ra += 360
	}
	p.RA = ra
	return p, nil
}

// BrokenChannelSet is an immutable set of channels excluded from science.
// The zero value is the empty set.
type BrokenChannelSet struct {
	m map[int]struct{}
}

// NewBrokenChannelSet returns a set holding the given channels.
func NewBrokenChannelSet(channels ...int) BrokenChannelSet {
	m := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		m[ch] = struct{}{}
	}
	return BrokenChannelSet{m: m}
}

// Contains reports whether ch is broken.
func (s BrokenChannelSet) Contains(ch int) bool {
	_, ok := s.m[ch]
	return ok
}

// Len returns the number of broken channels.
func (s BrokenChannelSet) Len() int {
	return len(s.m)
}

// Channels returns the broken channels in ascending order.
func (s BrokenChannelSet) Channels() []int {
	out := make([]int, 0, len(s.m))
	for ch := range s.m {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// Union returns a new set holding the channels of s and other.
func (s BrokenChannelSet) Union(other BrokenChannelSet) BrokenChannelSet {
	m := make(map[int]struct{}, len(s.m)+len(other.m))
	for ch := range s.m {
		m[ch] = struct{}{}
	}
	for ch := range other.m {
		m[ch] = struct{}{}
	}
	return BrokenChannelSet{m: m}
}
