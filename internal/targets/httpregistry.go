package targets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 15 * time.Second

// HTTPRegistry reads the subscriber list from a remote endpoint on every List
// call. No caching: a stale list must never outlive one tick.
type HTTPRegistry struct {
	url        string
	httpClient *http.Client
}

// NewHTTPRegistry creates a registry client for the given URL.
func NewHTTPRegistry(url string) *HTTPRegistry {
	return &HTTPRegistry{
		url:        url,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// List implements Registry.
func (r *HTTPRegistry) List(ctx context.Context) ([]Target, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("targets: create request: %w", err)
	}

	resp, err := r.httpClient.Do(req) //nolint:gosec // G704: url is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("targets: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("targets: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > 512 {
			body = body[:512]
		}
		return nil, fmt.Errorf("targets: returned %d: %s", resp.StatusCode, string(body))
	}

	list, err := decodeTargets(body)
	if err != nil {
		return nil, fmt.Errorf("targets: decode response: %w", err)
	}
	return list, nil
}
