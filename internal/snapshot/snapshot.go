// Package snapshot serves a cached copy of an HTML page fetched from an
// origin server.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linnemanlabs/go-core/log"
)

const (
	httpTimeout = 15 * time.Second
	maxBodySize = 4 << 20 // 4 MiB
)

// Cache fetches one page from an origin URL and serves it from memory for
// ttl. There is a single cache entry; concurrent readers during a refresh
// share the stored copy while one goroutine fetches.
type Cache struct {
	originURL  string
	ttl        time.Duration
	logger     log.Logger
	clock      clockwork.Clock
	httpClient *http.Client

	mu          sync.Mutex
	body        []byte
	contentType string
	fetchedAt   time.Time
}

// New creates a snapshot cache. A nil clock defaults to the real clock.
func New(originURL string, ttl time.Duration, logger log.Logger, clock clockwork.Clock) *Cache {
	if logger == nil {
		logger = log.Nop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		originURL:  originURL,
		ttl:        ttl,
		logger:     logger,
		clock:      clock,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// Get returns the cached page, refreshing it from the origin when the entry
// is older than ttl. A refresh failure serves the stale copy if one exists.
func (c *Cache) Get(ctx context.Context) (body []byte, contentType string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.body != nil && c.clock.Since(c.fetchedAt) < c.ttl {
		return c.body, c.contentType, nil
	}

	fresh, ct, err := c.fetch(ctx)
	if err != nil {
		if c.body != nil {
			c.logger.Warn(ctx, "snapshot refresh failed, serving stale copy", "error", err.Error())
			return c.body, c.contentType, nil
		}
		return nil, "", err
	}

	c.body = fresh
	c.contentType = ct
	c.fetchedAt = c.clock.Now()
	return c.body, c.contentType, nil
}

func (c *Cache) fetch(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.originURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("snapshot: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: originURL is from trusted config, not user input
	if err != nil {
		return nil, "", fmt.Errorf("snapshot: fetch origin: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("snapshot: origin returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("snapshot: read origin body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	return body, ct, nil
}
