package fovcache

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/layout"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newCache(t *testing.T) (*Cache, *campaign.Store) {
	t.Helper()
	l, err := layout.Default()
	if err != nil {
		t.Fatal(err)
	}
	store := campaign.NewStore()
	return New(store, l, testLogger()), store
}

func loadEmbedded(t *testing.T, store *campaign.Store, at time.Time) *campaign.Table {
	t.Helper()
	table, err := campaign.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	store.Set(&campaign.Dataset{Source: "embedded", LoadedAt: at, Table: table})
	return table
}

func TestEmptyStore(t *testing.T) {
	c, _ := newCache(t)
	if _, err := c.Get("9"); !errors.Is(err, ErrNoTable) {
		t.Errorf("err = %v, want ErrNoTable", err)
	}
	if _, err := c.All(); !errors.Is(err, ErrNoTable) {
		t.Errorf("err = %v, want ErrNoTable", err)
	}
}

func TestGet(t *testing.T) {
	c, store := newCache(t)
	loadEmbedded(t, store, time.Now())

	f, err := c.Get("c9")
	if err != nil {
		t.Fatal(err)
	}
	if ra, dec := f.Boresight(); ra != 270.3544823 || dec != -21.7798098 {
		t.Errorf("boresight = (%v, %v)", ra, dec)
	}

	again, err := c.Get("9")
	if err != nil {
		t.Fatal(err)
	}
	if again != f {
		t.Error("second Get returned a different field of view")
	}

	if _, err := c.Get("77"); !errors.Is(err, campaign.ErrUnknownCampaign) {
		t.Errorf("err = %v, want ErrUnknownCampaign", err)
	}
}

// TestRebuildOnNewDataset verifies a new dataset invalidates the cache.
func TestRebuildOnNewDataset(t *testing.T) {
	c, store := newCache(t)
	loadEmbedded(t, store, time.Unix(1000, 0))
	first, err := c.Get("9")
	if err != nil {
		t.Fatal(err)
	}

	table := loadEmbedded(t, store, time.Unix(2000, 0))
	second, err := c.Get("9")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("field of view not rebuilt after dataset change")
	}
	got, err := c.Table()
	if err != nil || got != table {
		t.Errorf("Table() = %p, %v; want %p", got, err, table)
	}
}

func TestAllInTableOrder(t *testing.T) {
	c, store := newCache(t)
	table := loadEmbedded(t, store, time.Now())

	entries, err := c.All()
	if err != nil {
		t.Fatal(err)
	}
	ids := table.FieldNumbers()
	if len(entries) != len(ids) {
		t.Fatalf("got %d entries, want %d", len(entries), len(ids))
	}
	for i, e := range entries {
		if e.Campaign != ids[i] || e.FOV == nil {
			t.Errorf("entry %d = %q, want %q", i, e.Campaign, ids[i])
		}
	}
}

func TestConcurrentGet(t *testing.T) {
	c, store := newCache(t)
	loadEmbedded(t, store, time.Now())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get("5"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
