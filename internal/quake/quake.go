// Package quake holds the seismic event domain model shared by the feed
// client, the enrichment client, and the alert engine.
package quake

// Event is the bare event as observed on the upstream feed.
type Event struct {
	ID        string
	Magnitude float64
}

// Actionable reports whether the event carries enough data to be processed.
func (e Event) Actionable() bool {
	return e.ID != "" && isFinite(e.Magnitude)
}

// Locality is one per-location intensity prediction. Intensity is kept as
// the wire string; the engine never computes with it, only renders it.
type Locality struct {
	Name      string
	Intensity string
}

// Enriched is the event after the intensity service has augmented it.
// EventID may differ from the feed id: the enrichment service assigns its
// own identifiers, so callers must keep the feed id around for dedup.
type Enriched struct {
	EventID    string
	Magnitude  float64
	OccurredAt string
	Reference  string
	Localities []Locality
}
