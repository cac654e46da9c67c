package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

// Snapshot history table. MergeTree ordered by capture time; snapshots are
// append-only and never updated.
const snapshotTableDDL = `
	CREATE TABLE IF NOT EXISTS market_snapshots (
		captured_at_ms        UInt64,
		total_volume_24h_usd  Float64,
		avg_volume_24h_usd    Float64,
		median_volume_24h_usd Float64,
		avg_liquidity_usd     Float64,
		median_liquidity_usd  Float64,
		volatility_index      Float64,
		sol_price_usd         Float64,
		sample_size           UInt32,
		fallback              UInt8
	) ENGINE = MergeTree()
	ORDER BY captured_at_ms
	SETTINGS index_granularity = 8192
`

// EnsureSchema creates the snapshot table if it does not exist.
func EnsureSchema(ctx context.Context, conn *Conn) error {
	if err := conn.Exec(ctx, snapshotTableDDL); err != nil {
		return fmt.Errorf("apply snapshot schema: %w", err)
	}
	return nil
}

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert appends a snapshot.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_snapshots (
			captured_at_ms, total_volume_24h_usd, avg_volume_24h_usd,
			median_volume_24h_usd, avg_liquidity_usd, median_liquidity_usd,
			volatility_index, sol_price_usd, sample_size, fallback
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	fallback := uint8(0)
	if snap.Fallback {
		fallback = 1
	}

	err = batch.Append(
		uint64(snap.CapturedAt.UnixMilli()), snap.TotalVolume24hUSD, snap.AvgVolume24hUSD,
		snap.MedianVolume24hUSD, snap.AvgLiquidityUSD, snap.MedianLiquidityUSD,
		snap.VolatilityIndex, snap.SOLPriceUSD, uint32(snap.SampleSize), fallback,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves snapshots captured within [start, end] (inclusive),
// ordered by capture time ASC.
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT captured_at_ms, total_volume_24h_usd, avg_volume_24h_usd,
		       median_volume_24h_usd, avg_liquidity_usd, median_liquidity_usd,
		       volatility_index, sol_price_usd, sample_size, fallback
		FROM market_snapshots
		WHERE captured_at_ms >= ? AND captured_at_ms <= ?
		ORDER BY captured_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	var out []*domain.MarketSnapshot
	for rows.Next() {
		var snap domain.MarketSnapshot
		var capturedAtMs uint64
		var sampleSize uint32
		var fallback uint8

		err := rows.Scan(
			&capturedAtMs, &snap.TotalVolume24hUSD, &snap.AvgVolume24hUSD,
			&snap.MedianVolume24hUSD, &snap.AvgLiquidityUSD, &snap.MedianLiquidityUSD,
			&snap.VolatilityIndex, &snap.SOLPriceUSD, &sampleSize, &fallback,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.CapturedAt = time.UnixMilli(int64(capturedAtMs)).UTC()
		snap.SampleSize = int(sampleSize)
		snap.Fallback = fallback != 0
		out = append(out, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return out, nil
}
