// Package finder answers which K2 campaigns observed a sky position.
package finder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/fovcache"
)

// DefaultOutputFile is the name the findcampaigns tool writes to.
const DefaultOutputFile = "K2findCampaigns-output.csv"

// Result holds the campaigns that cover one target.
type Result struct {
	Target    catalog.Target `json:"target"`
	Campaigns []string       `json:"campaigns"`
	Error     string         `json:"error,omitempty"`
}

// Finder searches every campaign in a fovcache.Cache.
type Finder struct {
	fovs    *fovcache.Cache
	padding float64
	workers int
}

// New creates a Finder. workers bounds the goroutines used by Search; zero
// means runtime.NumCPU().
func New(fovs *fovcache.Cache, padding float64, workers int) *Finder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Finder{fovs: fovs, padding: padding, workers: workers}
}

// FindCampaigns returns the campaigns, in table order, during which (ra,
// dec) fell on a working science channel.
func (f *Finder) FindCampaigns(ra, dec float64) ([]string, error) {
	entries, err := f.fovs.All()
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if e.FOV.IsOnSilicon(ra, dec, f.padding) {
			out = append(out, e.Campaign)
		}
	}
	return out, nil
}

// Search runs FindCampaigns for every target. At most f.workers targets
// are in flight at once; a slot is taken before each goroutine starts.
// Results keep input order, and targets not started before ctx is done
// are marked cancelled.
func (f *Finder) Search(ctx context.Context, targets []catalog.Target) []Result {
	results := make([]Result, len(targets))
	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup

	for i, t := range targets {
		if !acquire(ctx, sem) {
			for j := i; j < len(targets); j++ {
				results[j] = Result{Target: targets[j], Error: "cancelled"}
			}
			wg.Wait()
			return results
		}

		wg.Add(1)
		go func(idx int, t catalog.Target) {
			defer wg.Done()
			defer func() { <-sem }()

			campaigns, err := f.FindCampaigns(t.RA, t.Dec)
			if err != nil {
				results[idx] = Result{Target: t, Error: err.Error()}
				return
			}
			results[idx] = Result{Target: t, Campaigns: campaigns}
		}(i, t)
	}

	wg.Wait()
	return results
}

// acquire takes a slot from sem unless ctx is done first.
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// WriteResults emits one "ra, dec, mag, [campaigns]" line per result.
// Campaign ids inside the brackets are separated by spaces so the line
// keeps four comma-separated columns.
func WriteResults(w io.Writer, results []Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if _, err := fmt.Fprintf(bw, "%10.10f, %10.10f, %10.2f, [%s]\n",
			r.Target.RA, r.Target.Dec, r.Target.Mag, strings.Join(r.Campaigns, " ")); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}
	return bw.Flush()
}
