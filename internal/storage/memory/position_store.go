package memory

import (
	"context"
	"sort"
	"sync"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position id
}

// NewPositionStore creates a new in-memory position archive.
func NewPositionStore() *PositionStore {
	return &PositionStore{data: make(map[string]*domain.Position)}
}

var _ storage.PositionStore = (*PositionStore)(nil)

// Insert archives a closed position. Returns ErrDuplicateKey if the id exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *p
	s.data[p.ID] = &cp
	return nil
}

// GetByID retrieves a position by id. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, id string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByMint retrieves all archived positions for a mint.
func (s *PositionStore) GetByMint(_ context.Context, mint string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Position
	for _, p := range s.data {
		if p.Mint == mint {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortPositions(out)
	return out, nil
}

// GetAll retrieves all archived positions, ordered by close time ASC.
func (s *PositionStore) GetAll(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Position, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		out = append(out, &cp)
	}
	sortPositions(out)
	return out, nil
}

func sortPositions(positions []*domain.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if !positions[i].ClosedAt.Equal(positions[j].ClosedAt) {
			return positions[i].ClosedAt.Before(positions[j].ClosedAt)
		}
		return positions[i].ID < positions[j].ID
	})
}
