package region

import (
	"errors"
	"log/slog"

	"github.com/mrtommyb/K2fov/internal/fov"
)

// SkyRegion answers region membership for sky positions observed through
// one field of view.
type SkyRegion struct {
	fov    *fov.FieldOfView
	mask   *Mask
	logger *slog.Logger
}

// NewSkyRegion combines a field of view with a pixel mask. The mask should
// belong to the campaign the field of view was built for.
func NewSkyRegion(f *fov.FieldOfView, m *Mask, logger *slog.Logger) *SkyRegion {
	if logger == nil {
		logger = slog.Default()
	}
	return &SkyRegion{fov: f, mask: m, logger: logger}
}

// Mask returns the pixel mask.
func (s *SkyRegion) Mask() *Mask {
	return s.mask
}

// Contains reports whether (ra, dec) lands inside the region. Positions
// that do not resolve to a legal pixel are outside.
func (s *SkyRegion) Contains(ra, dec float64) bool {
	pc, ok := s.locate(ra, dec)
	return ok && s.mask.IsInRegion(pc.Channel, pc.Col, pc.Row)
}

// ContainsWithPadding is Contains with the region eroded by padding pixels.
func (s *SkyRegion) ContainsWithPadding(ra, dec, padding float64) bool {
	pc, ok := s.locate(ra, dec)
	return ok && s.mask.IsInRegionWithPadding(pc.Channel, pc.Col, pc.Row, padding)
}

// Locate returns the pixel (ra, dec) falls on, if it is a legal pixel.
func (s *SkyRegion) Locate(ra, dec float64) (fov.PixelCoordinate, bool) {
	return s.locate(ra, dec)
}

func (s *SkyRegion) locate(ra, dec float64) (fov.PixelCoordinate, bool) {
	pc, err := s.fov.ChannelColRowStrict(ra, dec)
	if err != nil {
		if !errors.Is(err, fov.ErrOffSilicon) && !errors.Is(err, fov.ErrNoChannel) {
			s.logger.Warn("region lookup failed", "ra", ra, "dec", dec, "error", err)
		}
		return fov.PixelCoordinate{}, false
	}
	return pc, true
}
