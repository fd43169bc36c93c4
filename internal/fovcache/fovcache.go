// Package fovcache keeps one field of view per campaign, rebuilt whenever
// the campaign table in the store changes.
package fovcache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/fov"
	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/metrics"
)

// ErrNoTable is returned before a campaign table has been loaded.
var ErrNoTable = errors.New("no campaign table loaded")

// Entry is the field of view of one campaign.
type Entry struct {
	Campaign string
	FOV      *fov.FieldOfView
}

// fovSet holds the fields of view built from one dataset.
// Immutable after construction; safe for concurrent reads.
type fovSet struct {
	order    []Entry
	byID     map[string]*fov.FieldOfView
	loadedAt time.Time
	table    *campaign.Table
}

// Cache builds fields of view lazily from the current campaign table.
type Cache struct {
	store  *campaign.Store
	layout *layout.Layout
	logger *slog.Logger

	set atomic.Pointer[fovSet]
	mu  sync.Mutex // serializes rebuilds
}

// New creates a Cache over store and l.
func New(store *campaign.Store, l *layout.Layout, logger *slog.Logger) *Cache {
	return &Cache{store: store, layout: l, logger: logger}
}

// Layout returns the channel layout every field of view is built from.
func (c *Cache) Layout() *layout.Layout {
	return c.layout
}

// current returns the set for the store's dataset, rebuilding it if the
// dataset has changed (double-checked locking).
func (c *Cache) current() (*fovSet, error) {
	ds := c.store.Get()
	if ds == nil || ds.Table == nil {
		return nil, ErrNoTable
	}
	if s := c.set.Load(); s != nil && s.table == ds.Table && s.loadedAt.Equal(ds.LoadedAt) {
		return s, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.set.Load(); s != nil && s.table == ds.Table && s.loadedAt.Equal(ds.LoadedAt) {
		return s, nil
	}

	ids := ds.Table.FieldNumbers()
	s := &fovSet{
		order:    make([]Entry, 0, len(ids)),
		byID:     make(map[string]*fov.FieldOfView, len(ids)),
		loadedAt: ds.LoadedAt,
		table:    ds.Table,
	}
	for _, id := range ids {
		f, err := ds.Table.FieldOfView(id, c.layout, c.logger)
		if err != nil {
			return nil, fmt.Errorf("building campaign %s: %w", id, err)
		}
		metrics.RecordFovBuild()
		s.order = append(s.order, Entry{Campaign: id, FOV: f})
		s.byID[id] = f
	}

	c.logger.Info("field of view cache rebuilt",
		"campaigns", len(s.order),
		"source", ds.Source,
		"dataset_loaded_at", ds.LoadedAt.UTC().Format(time.RFC3339),
	)
	c.set.Store(s)
	return s, nil
}

// Get returns the field of view of campaign id.
func (c *Cache) Get(id string) (*fov.FieldOfView, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	f, ok := s.byID[campaign.NormalizeID(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", campaign.ErrUnknownCampaign, id)
	}
	return f, nil
}

// All returns every campaign's field of view in table order.
func (c *Cache) All() ([]Entry, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return append([]Entry(nil), s.order...), nil
}

// Table returns the campaign table the cached fields were built from.
func (c *Cache) Table() (*campaign.Table, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.table, nil
}
