// Package feed fetches the latest observed events from the upstream
// seismic feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/temblor/internal/quake"
)

const httpTimeout = 15 * time.Second

// wrapKeys are the alternative top-level keys the feed has been observed to
// nest its event list under. A bare top-level array is also accepted.
var wrapKeys = []string{"events", "data", "results"}

// Client reads the upstream event feed over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a feed client for the given URL.
func New(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// Latest fetches the feed and returns the decoded event list, most recent
// first (feed order is preserved). Events that fail id or magnitude
// extraction are returned with their zero fields; callers gate on
// Event.Actionable.
func (c *Client) Latest(ctx context.Context) ([]quake.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: url is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("feed: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	events, err := decodeEvents(body)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return events, nil
}

// decodeEvents accepts either a top-level JSON array or an object wrapping
// the array under one of the conventional keys.
func decodeEvents(body []byte) ([]quake.Event, error) {
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err == nil {
		return mapEvents(list), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, key := range wrapKeys {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode %q list: %w", key, err)
		}
		return mapEvents(list), nil
	}

	return nil, fmt.Errorf("no event list found under %v", wrapKeys)
}

func mapEvents(list []map[string]any) []quake.Event {
	events := make([]quake.Event, 0, len(list))
	for _, rec := range list {
		events = append(events, mapEvent(rec))
	}
	return events
}

func mapEvent(rec map[string]any) quake.Event {
	var ev quake.Event

	for _, key := range []string{"id", "ID", "eventId"} {
		if s, ok := rec[key].(string); ok && s != "" {
			ev.ID = s
			break
		}
	}

	for _, key := range []string{"magnitude", "magnitud", "mag"} {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		if m, ok := quake.ParseMagnitude(raw); ok {
			ev.Magnitude = m
		}
		break
	}

	return ev
}

func truncateBody(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}
