package finder

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/fovcache"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFinder(t *testing.T, workers int) *Finder {
	t.Helper()
	l, err := layout.Default()
	if err != nil {
		t.Fatal(err)
	}
	table, err := campaign.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	store := campaign.NewStore()
	store.Set(&campaign.Dataset{Source: "embedded", LoadedAt: time.Now(), Table: table})
	return New(fovcache.New(store, l, testLogger()), fov.DefaultPadding, workers)
}

func TestFindCampaigns(t *testing.T) {
	f := newFinder(t, 0)

	got, err := f.FindCampaigns(269.5, -28.5)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(got, "9") {
		t.Errorf("campaigns for (269.5, -28.5) = %v, want to include 9", got)
	}
	if slices.Contains(got, "0") {
		t.Errorf("campaigns for (269.5, -28.5) = %v, should not include 0", got)
	}

	got, err = f.FindCampaigns(0, 85)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("campaigns near the north pole = %v, want none", got)
	}
}

func TestFindCampaignsNoTable(t *testing.T) {
	l, err := layout.Default()
	if err != nil {
		t.Fatal(err)
	}
	f := New(fovcache.New(campaign.NewStore(), l, testLogger()), fov.DefaultPadding, 1)
	if _, err := f.FindCampaigns(0, 0); err == nil {
		t.Error("expected an error with no campaign table")
	}
	res := f.Search(context.Background(), []catalog.Target{{RA: 1, Dec: 2}})
	if len(res) != 1 || res[0].Error == "" {
		t.Errorf("expected a per-target error, got %+v", res)
	}
}

func TestSearch(t *testing.T) {
	f := newFinder(t, 2)
	targets := []catalog.Target{
		{Line: 1, RA: 269.5, Dec: -28.5, Mag: 12},
		{Line: 2, RA: 0, Dec: 85, Mag: 13},
		{Line: 3, RA: 269.5, Dec: -28.5, Mag: 14},
	}
	results := f.Search(context.Background(), targets)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Target != targets[i] {
			t.Errorf("result %d out of order: %+v", i, r.Target)
		}
		if r.Error != "" {
			t.Errorf("result %d error: %s", i, r.Error)
		}
	}
	if !slices.Equal(results[0].Campaigns, results[2].Campaigns) {
		t.Errorf("identical targets disagree: %v vs %v", results[0].Campaigns, results[2].Campaigns)
	}
	if len(results[1].Campaigns) != 0 {
		t.Errorf("polar target campaigns = %v", results[1].Campaigns)
	}
}

func TestSearchCancelled(t *testing.T) {
	f := newFinder(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	targets := make([]catalog.Target, 50)
	results := f.Search(ctx, targets)
	var cancelled int
	for _, r := range results {
		if r.Error == "cancelled" {
			cancelled++
		}
	}
	if cancelled != len(targets) {
		t.Errorf("%d of %d targets cancelled, want all", cancelled, len(targets))
	}
}

func TestSearchBoundsGoroutines(t *testing.T) {
	f := newFinder(t, 2)
	targets := make([]catalog.Target, 2000)
	for i := range targets {
		targets[i] = catalog.Target{Line: i + 1, RA: 269.5, Dec: -28.5}
	}

	base := runtime.NumGoroutine()
	done := make(chan struct{})
	peak := make(chan int)
	go func() {
		highest := 0
		for {
			select {
			case <-done:
				peak <- highest
				return
			default:
			}
			if n := runtime.NumGoroutine(); n > highest {
				highest = n
			}
			runtime.Gosched()
		}
	}()

	results := f.Search(context.Background(), targets)
	close(done)
	got := <-peak

	for i, r := range results {
		if r.Error != "" || !slices.Contains(r.Campaigns, "9") {
			t.Fatalf("result %d = %+v", i, r)
		}
	}
	// Two workers plus the sampler, with some slack for the runtime.
	if got > base+10 {
		t.Errorf("peak goroutines %d with baseline %d, want at most 2 targets in flight", got, base)
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResults(&buf, []Result{
		{Target: catalog.Target{RA: 269.5, Dec: -28.5, Mag: 12}, Campaigns: []string{"9", "11"}},
		{Target: catalog.Target{RA: 1, Dec: 2, Mag: 3}, Campaigns: []string{}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "269.5000000000, -28.5000000000,      12.00, [9 11]\n1.0000000000, 2.0000000000,       3.00, []\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
