package alerter

import (
	"context"
	"time"
)

// SeenMarker records the most recent event id observed on the feed. It is a
// pure audit trail: updated whenever the feed's latest id changes, whether
// or not an alert follows.
type SeenMarker struct {
	EventID   string
	Magnitude float64
	At        time.Time
}

// AlertedMarker records the most recent event the engine finished processing.
// EventID is the feed id and is the dedup key: once written, that id is never
// processed again, across restarts included. PayloadID is the enrichment
// service's id for the same event (falls back to the feed id) and exists for
// audit only.
type AlertedMarker struct {
	EventID   string
	PayloadID string
	Magnitude float64
	At        time.Time
}

// Store is the persistence interface for the watermark markers. Both markers
// are independent single slots; writes replace the previous value.
type Store interface {
	GetSeen(ctx context.Context) (SeenMarker, bool, error)
	PutSeen(ctx context.Context, m SeenMarker) error
	GetAlerted(ctx context.Context) (AlertedMarker, bool, error)
	PutAlerted(ctx context.Context, m AlertedMarker) error
}
