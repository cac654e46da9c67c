package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.MarketSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot history store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert appends a snapshot.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	s.data = append(s.data, &cp)
	return nil
}

// GetByTimeRange retrieves snapshots captured within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.MarketSnapshot
	for _, snap := range s.data {
		if !snap.CapturedAt.Before(start) && !snap.CapturedAt.After(end) {
			cp := *snap
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CapturedAt.Before(out[j].CapturedAt)
	})
	return out, nil
}
