package campaign

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrtommyb/K2fov/internal/metrics"
)

// maxTableBytes bounds the size of a fetched campaign table.
const maxTableBytes = 4 << 20

// Fetcher downloads campaign tables over HTTP.
type Fetcher struct {
	sourceURL  string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for sourceURL.
func NewFetcher(sourceURL string) *Fetcher {
	return &Fetcher{
		sourceURL: sourceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SourceURL returns the configured URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch retrieves the raw table.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching campaign table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.sourceURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxTableBytes {
		return nil, fmt.Errorf("campaign table exceeds %d byte limit", maxTableBytes)
	}
	return body, nil
}

// Refresher ties a Fetcher, a Cache and a Store together.
type Refresher struct {
	fetcher *Fetcher
	cache   *Cache
	store   *Store
	logger  *slog.Logger
}

// NewRefresher creates a Refresher. cache may be nil.
func NewRefresher(fetcher *Fetcher, cache *Cache, store *Store, logger *slog.Logger) *Refresher {
	return &Refresher{fetcher: fetcher, cache: cache, store: store, logger: logger}
}

// Refresh fetches, validates and publishes a new table. A table that fails
// to parse leaves the current one in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.store.Lock()
	defer r.store.Unlock()

	err := r.refresh(ctx)
	metrics.RecordCampaignRefresh(err)
	return err
}

func (r *Refresher) refresh(ctx context.Context) error {
	data, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	table, err := Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing fetched table: %w", err)
	}

	now := time.Now()
	if r.cache != nil {
		if err := r.cache.Write(data, now); err != nil {
			r.logger.Warn("failed to cache campaign table", "error", err)
		}
	}

	r.store.Set(&Dataset{Source: r.fetcher.SourceURL(), LoadedAt: now, Table: table})
	r.logger.Info("campaign table refreshed", "source", r.fetcher.SourceURL(), "fields", len(table.FieldNumbers()))
	return nil
}

// Run refreshes every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("campaign table refresh failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// LoadInitial publishes the newest cached table if one parses, otherwise
// the embedded table.
func LoadInitial(cache *Cache, store *Store, logger *slog.Logger) error {
	if cache != nil {
		data, ts, err := cache.LoadLatest()
		if err != nil {
			logger.Info("no campaign table cache found, using embedded table", "error", err)
		} else if table, err := Parse(bytes.NewReader(data)); err != nil {
			logger.Warn("failed to parse cached campaign table", "error", err)
		} else {
			store.Set(&Dataset{Source: "cache", LoadedAt: ts, Table: table})
			logger.Info("loaded campaign table from cache", "fields", len(table.FieldNumbers()), "cached_at", ts.Format(time.RFC3339))
			return nil
		}
	}

	table, err := Embedded()
	if err != nil {
		return fmt.Errorf("embedded campaign table: %w", err)
	}
	store.Set(&Dataset{Source: "embedded", LoadedAt: time.Now(), Table: table})
	return nil
}
