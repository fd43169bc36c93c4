package campaign

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// bkjdOffset is the Julian date at which Kepler barycentric Julian days
// (BKJD) start.
const bkjdOffset = 2454833.0

// JulianDate returns the Julian date of t in UTC.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/1e9/86400.0
}

// BKJD converts t to Kepler barycentric Julian days. The barycentric
// light-time correction of up to ±8.3 minutes is not applied.
func BKJD(t time.Time) float64 {
	return JulianDate(t) - bkjdOffset
}

// Window returns the start and stop of campaign id in BKJD.
func (t *Table) Window(id string) (start, stop float64, err error) {
	key := NormalizeID(id)
	s, ok := t.start[key]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownCampaign, id)
	}
	return BKJD(s), BKJD(t.stop[key]), nil
}

// Active returns the campaigns whose observing window contains at.
func (t *Table) Active(at time.Time) []string {
	var out []string
	for _, id := range t.order {
		// Stop dates are inclusive.
		if !at.Before(t.start[id]) && at.Before(t.stop[id].AddDate(0, 0, 1)) {
			out = append(out, id)
		}
	}
	return out
}
