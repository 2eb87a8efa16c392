// Package pgstore provides a PostgreSQL implementation of alerter.Store.
// Markers survive restarts, which is what makes the dedup contract hold
// across deploys.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/temblor/internal/alerter"
)

var tracer = otel.Tracer("github.com/linnemanlabs/temblor/internal/alerter/pgstore")

//go:embed schema.sql
var schema string

// Marker row names. One row per marker kind.
const (
	markerSeen    = "seen"
	markerAlerted = "alerted"
)

// Store persists watermark markers in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// GetSeen reads the seen marker.
func (s *Store) GetSeen(ctx context.Context) (alerter.SeenMarker, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.GetSeen", "SELECT")
	defer span.End()

	var m alerter.SeenMarker
	err := s.pool.QueryRow(ctx,
		`SELECT event_id, magnitude, at FROM alert_markers WHERE name = $1`, markerSeen,
	).Scan(&m.EventID, &m.Magnitude, &m.At)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alerter.SeenMarker{}, false, nil
		}
		recordErr(span, err)
		return alerter.SeenMarker{}, false, fmt.Errorf("get seen marker: %w", err)
	}
	return m, true, nil
}

// PutSeen upserts the seen marker.
func (s *Store) PutSeen(ctx context.Context, m alerter.SeenMarker) error {
	ctx, span := s.startSpan(ctx, "pgstore.PutSeen", "UPSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alert_markers (name, event_id, magnitude, at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET
			event_id  = EXCLUDED.event_id,
			magnitude = EXCLUDED.magnitude,
			at        = EXCLUDED.at`,
		markerSeen, m.EventID, m.Magnitude, m.At,
	)
	if err != nil {
		recordErr(span, err)
		return fmt.Errorf("put seen marker: %w", err)
	}
	return nil
}

// GetAlerted reads the alerted marker.
func (s *Store) GetAlerted(ctx context.Context) (alerter.AlertedMarker, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.GetAlerted", "SELECT")
	defer span.End()

	var m alerter.AlertedMarker
	err := s.pool.QueryRow(ctx,
		`SELECT event_id, payload_id, magnitude, at FROM alert_markers WHERE name = $1`, markerAlerted,
	).Scan(&m.EventID, &m.PayloadID, &m.Magnitude, &m.At)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alerter.AlertedMarker{}, false, nil
		}
		recordErr(span, err)
		return alerter.AlertedMarker{}, false, fmt.Errorf("get alerted marker: %w", err)
	}
	return m, true, nil
}

// PutAlerted upserts the alerted marker.
func (s *Store) PutAlerted(ctx context.Context, m alerter.AlertedMarker) error {
	ctx, span := s.startSpan(ctx, "pgstore.PutAlerted", "UPSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alert_markers (name, event_id, payload_id, magnitude, at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
			event_id   = EXCLUDED.event_id,
			payload_id = EXCLUDED.payload_id,
			magnitude  = EXCLUDED.magnitude,
			at         = EXCLUDED.at`,
		markerAlerted, m.EventID, m.PayloadID, m.Magnitude, m.At,
	)
	if err != nil {
		recordErr(span, err)
		return fmt.Errorf("put alerted marker: %w", err)
	}
	return nil
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
