package storage

import (
	"context"
	"time"

	"solana-autotrader/internal/domain"
)

// TradeEventStore is the trade log. Recording is fire-and-forget from the
// trading core: a store failure is logged by the caller and never affects
// trading decisions.
type TradeEventStore interface {
	// Record appends a trade event. Returns ErrDuplicateKey if event_id exists.
	Record(ctx context.Context, e *domain.TradeEvent) error

	// GetByPosition retrieves all events for a position, ordered by timestamp ASC.
	GetByPosition(ctx context.Context, positionID string) ([]*domain.TradeEvent, error)

	// GetByTimeRange retrieves events within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TradeEvent, error)
}

// PositionStore archives closed positions. Open positions live in the
// position manager's memory; only terminal states are persisted.
type PositionStore interface {
	// Insert archives a closed position. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// GetByMint retrieves all archived positions for a mint.
	GetByMint(ctx context.Context, mint string) ([]*domain.Position, error)

	// GetAll retrieves all archived positions, ordered by close time ASC.
	GetAll(ctx context.Context) ([]*domain.Position, error)
}

// SnapshotStore keeps a history of market snapshots for later analysis.
// Writes are fire-and-forget like the trade log.
type SnapshotStore interface {
	// Insert appends a snapshot.
	Insert(ctx context.Context, s *domain.MarketSnapshot) error

	// GetByTimeRange retrieves snapshots captured within [start, end] (inclusive),
	// ordered by capture time ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.MarketSnapshot, error)
}
