// Package memory provides in-memory store implementations for tests and
// storage-free runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// TradeEventStore is an in-memory implementation of storage.TradeEventStore.
type TradeEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeEvent // keyed by event_id
}

// NewTradeEventStore creates a new in-memory trade event store.
func NewTradeEventStore() *TradeEventStore {
	return &TradeEventStore{data: make(map[string]*domain.TradeEvent)}
}

var _ storage.TradeEventStore = (*TradeEventStore)(nil)

// Record appends a trade event. Returns ErrDuplicateKey if event_id exists.
func (s *TradeEventStore) Record(_ context.Context, e *domain.TradeEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *e
	s.data[e.EventID] = &cp
	return nil
}

// GetByPosition retrieves all events for a position, ordered by timestamp ASC.
func (s *TradeEventStore) GetByPosition(_ context.Context, positionID string) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeEvent
	for _, e := range s.data {
		if e.PositionID == positionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortEvents(out)
	return out, nil
}

// GetByTimeRange retrieves events within [start, end] (inclusive).
func (s *TradeEventStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeEvent
	for _, e := range s.data {
		if !e.Timestamp.Before(start) && !e.Timestamp.After(end) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortEvents(out)
	return out, nil
}

// sortEvents orders by timestamp; on equal timestamps an ENTRY sorts before
// an EXIT so a position's lifecycle reads in order even within one instant.
func sortEvents(events []*domain.TradeEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		if events[i].Type != events[j].Type {
			return events[i].Type == domain.TradeEventEntry
		}
		return events[i].EventID < events[j].EventID
	})
}
