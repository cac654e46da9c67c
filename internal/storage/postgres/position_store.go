package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, mint, symbol, entry_price, amount_sol, token_amount,
	entry_time, target_price, stop_price, close_price, unrealized_pnl,
	status, exit_reason, closed_at
`

// Insert archives a closed position. Returns ErrDuplicateKey if the id exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Mint, p.Symbol, p.EntryPrice, p.AmountSOL, p.TokenAmount,
		p.EntryTime, p.TargetPrice, p.StopPrice, p.ClosePrice, p.UnrealizedPnl,
		string(p.Status), p.ExitReason, p.ClosedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by id. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE position_id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetByMint retrieves all archived positions for a mint.
func (s *PositionStore) GetByMint(ctx context.Context, mint string) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE mint = $1 ORDER BY closed_at ASC, position_id ASC`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query positions by mint: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetAll retrieves all archived positions, ordered by close time ASC.
func (s *PositionStore) GetAll(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions ORDER BY closed_at ASC, position_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var status string
	err := row.Scan(
		&p.ID, &p.Mint, &p.Symbol, &p.EntryPrice, &p.AmountSOL, &p.TokenAmount,
		&p.EntryTime, &p.TargetPrice, &p.StopPrice, &p.ClosePrice, &p.UnrealizedPnl,
		&status, &p.ExitReason, &p.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PositionStatus(status)
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var out []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return out, nil
}
