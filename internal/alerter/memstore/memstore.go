// Package memstore provides an in-memory implementation of alerter.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/temblor/internal/alerter"
)

// Store holds the watermark markers in memory. Suitable for dev/testing;
// dedup state does not survive a restart.
type Store struct {
	mu      sync.RWMutex
	seen    *alerter.SeenMarker
	alerted *alerter.AlertedMarker
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{}
}

// GetSeen returns the seen marker, if any.
func (s *Store) GetSeen(_ context.Context) (alerter.SeenMarker, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seen == nil {
		return alerter.SeenMarker{}, false, nil
	}
	return *s.seen, true, nil
}

// PutSeen replaces the seen marker.
func (s *Store) PutSeen(_ context.Context, m alerter.SeenMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = &m
	return nil
}

// GetAlerted returns the alerted marker, if any.
func (s *Store) GetAlerted(_ context.Context) (alerter.AlertedMarker, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.alerted == nil {
		return alerter.AlertedMarker{}, false, nil
	}
	return *s.alerted, true, nil
}

// PutAlerted replaces the alerted marker.
func (s *Store) PutAlerted(_ context.Context, m alerter.AlertedMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerted = &m
	return nil
}
