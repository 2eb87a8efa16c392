// Package intensity queries the secondary prediction service that augments a
// seismic event with per-locality intensity estimates.
package intensity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/linnemanlabs/temblor/internal/quake"
)

const httpTimeout = 20 * time.Second

// Client reads the intensity prediction service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates an intensity client for the given base endpoint.
func New(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// Thresholds narrow the prediction response server-side.
type Thresholds struct {
	MinMagnitude  float64
	MinIntensity  int
	TopLocalities int
}

// Predict fetches the enriched view of the given feed event. The service may
// assign its own event id; EventID in the result falls back to the feed id
// when the response omits one.
func (c *Client) Predict(ctx context.Context, eventID string, th Thresholds) (*quake.Enriched, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("intensity: invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("id", eventID)
	q.Set("min_mag", strconv.FormatFloat(th.MinMagnitude, 'f', -1, 64))
	q.Set("min_int", strconv.Itoa(th.MinIntensity))
	q.Set("top", strconv.Itoa(th.TopLocalities))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("intensity: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("intensity: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("intensity: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > 512 {
			body = body[:512]
		}
		return nil, fmt.Errorf("intensity: returned %d: %s", resp.StatusCode, string(body))
	}

	enriched, err := decodePrediction(body, eventID)
	if err != nil {
		return nil, fmt.Errorf("intensity: %w", err)
	}
	return enriched, nil
}

// wire shapes. The service predates this notifier and uses Spanish field
// names; newer deployments emit English ones. Both are accepted.

type predictionResponse struct {
	Event       map[string]any `json:"event"`
	Localidades []localityRec  `json:"localidades"`
	Locations   []localityRec  `json:"locations"`
}

type localityRec struct {
	Localidad  string          `json:"localidad"`
	Name       string          `json:"name"`
	Intensidad json.RawMessage `json:"intensidad_predicha"`
	Intensity  json.RawMessage `json:"intensity"`
}

func decodePrediction(body []byte, feedID string) (*quake.Enriched, error) {
	var pr predictionResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	enriched := &quake.Enriched{EventID: feedID}

	for _, key := range []string{"id", "eventId"} {
		if s, ok := pr.Event[key].(string); ok && s != "" {
			enriched.EventID = s
			break
		}
	}
	for _, key := range []string{"magnitud", "magnitude"} {
		if raw, ok := pr.Event[key]; ok {
			if m, ok := quake.ParseMagnitude(raw); ok {
				enriched.Magnitude = m
			}
			break
		}
	}
	for _, key := range []string{"FechaHora", "occurred_at"} {
		if s, ok := pr.Event[key].(string); ok {
			enriched.OccurredAt = s
			break
		}
	}
	for _, key := range []string{"Referencia", "reference"} {
		if s, ok := pr.Event[key].(string); ok {
			enriched.Reference = s
			break
		}
	}

	recs := pr.Localidades
	if len(recs) == 0 {
		recs = pr.Locations
	}
	for _, rec := range recs {
		name := rec.Localidad
		if name == "" {
			name = rec.Name
		}
		raw := rec.Intensidad
		if raw == nil {
			raw = rec.Intensity
		}
		enriched.Localities = append(enriched.Localities, quake.Locality{
			Name:      name,
			Intensity: intensityString(raw),
		})
	}

	return enriched, nil
}

// intensityString renders a number-or-string intensity field verbatim.
func intensityString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return ""
}
