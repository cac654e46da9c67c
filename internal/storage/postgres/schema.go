package postgres

import (
	"context"
	"fmt"
)

// Schema DDL, applied idempotently at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trade_events (
		event_id    TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		position_id TEXT NOT NULL,
		mint        TEXT NOT NULL,
		symbol      TEXT NOT NULL,
		action      TEXT NOT NULL,
		amount_sol  DOUBLE PRECISION NOT NULL,
		price_usd   DOUBLE PRECISION NOT NULL,
		tx_hash     TEXT NOT NULL DEFAULT '',
		reason      TEXT NOT NULL DEFAULT '',
		pnl_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		ts          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_events_position ON trade_events (position_id, ts)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_events_ts ON trade_events (ts)`,
	`CREATE TABLE IF NOT EXISTS positions (
		position_id    TEXT PRIMARY KEY,
		mint           TEXT NOT NULL,
		symbol         TEXT NOT NULL,
		entry_price    DOUBLE PRECISION NOT NULL,
		amount_sol     DOUBLE PRECISION NOT NULL,
		token_amount   DOUBLE PRECISION NOT NULL,
		entry_time     TIMESTAMPTZ NOT NULL,
		target_price   DOUBLE PRECISION NOT NULL,
		stop_price     DOUBLE PRECISION NOT NULL,
		close_price    DOUBLE PRECISION NOT NULL,
		unrealized_pnl DOUBLE PRECISION NOT NULL,
		status         TEXT NOT NULL,
		exit_reason    TEXT NOT NULL DEFAULT '',
		closed_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_mint ON positions (mint)`,
	`CREATE INDEX IF NOT EXISTS idx_positions_closed_at ON positions (closed_at)`,
}

// EnsureSchema applies the schema. Statements are idempotent.
func EnsureSchema(ctx context.Context, pool *Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
