// Package targets loads the notification subscriber list and its filter
// rules. The engine reads it fresh on every tick and never mutates it.
package targets

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/linnemanlabs/temblor/internal/quake"
)

// Target is one notification recipient with its filter rules.
type Target struct {
	Phone        string
	MinMagnitude float64
	Locality     string // empty = wildcard, matches every event
	Enabled      bool
}

// Registry returns the current subscriber list.
type Registry interface {
	List(ctx context.Context) ([]Target, error)
}

// Matches reports whether the target qualifies for an event with the given
// effective magnitude and predicted localities. Locality comparison is
// case-insensitive.
func (t Target) Matches(magnitude float64, localities []quake.Locality) bool {
	if !t.Enabled {
		return false
	}
	if magnitude < t.MinMagnitude {
		return false
	}
	if t.Locality == "" {
		return true
	}
	for _, loc := range localities {
		if strings.EqualFold(t.Locality, loc.Name) {
			return true
		}
	}
	return false
}

// targetRec is the wire form. min_mag tolerates the same heterogeneous
// representations as feed magnitudes; malformed values default to 0.
// enabled defaults to false when absent.
type targetRec struct {
	Phone     string          `json:"phone"`
	MinMag    json.RawMessage `json:"min_mag"`
	Localidad string          `json:"localidad"`
	Enabled   bool            `json:"enabled"`
}

// decodeTargets parses a JSON array of target records, applying defaults for
// missing or malformed fields. A non-array payload is an error.
func decodeTargets(body []byte) ([]Target, error) {
	var recs []targetRec
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, err
	}

	out := make([]Target, 0, len(recs))
	for _, rec := range recs {
		t := Target{
			Phone:    rec.Phone,
			Locality: rec.Localidad,
			Enabled:  rec.Enabled,
		}
		if rec.MinMag != nil {
			var v any
			if err := json.Unmarshal(rec.MinMag, &v); err == nil {
				if m, ok := quake.ParseMagnitude(v); ok {
					t.MinMagnitude = m
				}
			}
		}
		out = append(out, t)
	}
	return out, nil
}
