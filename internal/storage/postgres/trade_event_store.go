package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// TradeEventStore implements storage.TradeEventStore using PostgreSQL.
type TradeEventStore struct {
	pool *Pool
}

// NewTradeEventStore creates a new TradeEventStore.
func NewTradeEventStore(pool *Pool) *TradeEventStore {
	return &TradeEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeEventStore = (*TradeEventStore)(nil)

// Record appends a trade event. Returns ErrDuplicateKey if event_id exists.
func (s *TradeEventStore) Record(ctx context.Context, e *domain.TradeEvent) error {
	if e == nil || e.EventID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_events (
			event_id, event_type, position_id, mint, symbol, action,
			amount_sol, price_usd, tx_hash, reason, pnl_percent, ts
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)
	`

	_, err := s.pool.Exec(ctx, query,
		e.EventID, e.Type, e.PositionID, e.Mint, e.Symbol, string(e.Action),
		e.AmountSOL, e.PriceUSD, e.TxHash, e.Reason, e.PnlPercent, e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// GetByPosition retrieves all events for a position, ordered by timestamp ASC.
func (s *TradeEventStore) GetByPosition(ctx context.Context, positionID string) ([]*domain.TradeEvent, error) {
	query := `
		SELECT event_id, event_type, position_id, mint, symbol, action,
		       amount_sol, price_usd, tx_hash, reason, pnl_percent, ts
		FROM trade_events
		WHERE position_id = $1
		ORDER BY ts ASC, event_type ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("query events by position: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] (inclusive).
func (s *TradeEventStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TradeEvent, error) {
	query := `
		SELECT event_id, event_type, position_id, mint, symbol, action,
		       amount_sol, price_usd, tx_hash, reason, pnl_percent, ts
		FROM trade_events
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, event_type ASC, event_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events by time range: %w", err)
	}
	defer rows.Close()

	return scanTradeEvents(rows)
}

func scanTradeEvents(rows pgx.Rows) ([]*domain.TradeEvent, error) {
	var out []*domain.TradeEvent
	for rows.Next() {
		var e domain.TradeEvent
		var action string
		err := rows.Scan(
			&e.EventID, &e.Type, &e.PositionID, &e.Mint, &e.Symbol, &action,
			&e.AmountSOL, &e.PriceUSD, &e.TxHash, &e.Reason, &e.PnlPercent, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade event: %w", err)
		}
		e.Action = domain.TradeAction(action)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade events: %w", err)
	}
	return out, nil
}
