package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/storage"
)

func createTestTradeEvent(eventID, positionID string, ts time.Time) *domain.TradeEvent {
	return &domain.TradeEvent{
		EventID:    eventID,
		Type:       domain.TradeEventEntry,
		PositionID: positionID,
		Mint:       "So11111111111111111111111111111111111111112",
		Symbol:     "TEST",
		Action:     domain.ActionBuy,
		AmountSOL:  0.1,
		PriceUSD:   0.0042,
		TxHash:     "tx-" + eventID,
		Reason:     "",
		PnlPercent: 0,
		Timestamp:  ts,
	}
}

func TestTradeEventStore_RecordAndGetByPosition(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := createTestTradeEvent("event-001", "pos-001", base)

	exit := createTestTradeEvent("event-002", "pos-001", base.Add(30*time.Minute))
	exit.Type = domain.TradeEventExit
	exit.Action = domain.ActionSell
	exit.Reason = domain.ExitReasonTargetReached
	exit.PnlPercent = 52.3

	other := createTestTradeEvent("event-003", "pos-002", base.Add(time.Hour))

	for _, e := range []*domain.TradeEvent{entry, exit, other} {
		require.NoError(t, store.Record(ctx, e))
	}

	result, err := store.GetByPosition(ctx, "pos-001")
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "event-001", result[0].EventID)
	assert.Equal(t, "event-002", result[1].EventID)
	assert.Equal(t, domain.ActionSell, result[1].Action)
	assert.Equal(t, domain.ExitReasonTargetReached, result[1].Reason)
	assert.InDelta(t, 52.3, result[1].PnlPercent, 0.0001)
	assert.True(t, result[0].Timestamp.Equal(base), "timestamp round-trip")
}

func TestTradeEventStore_SameInstantLifecycleOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Entry and exit share a timestamp; event IDs are picked so that plain
	// id ordering would put the exit first.
	exit := createTestTradeEvent("event-aaa", "pos-001", ts)
	exit.Type = domain.TradeEventExit
	exit.Action = domain.ActionSell
	entry := createTestTradeEvent("event-zzz", "pos-001", ts)

	require.NoError(t, store.Record(ctx, exit))
	require.NoError(t, store.Record(ctx, entry))

	result, err := store.GetByPosition(ctx, "pos-001")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.TradeEventEntry, result[0].Type)
	assert.Equal(t, domain.TradeEventExit, result[1].Type)
}

func TestTradeEventStore_RecordDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	e := createTestTradeEvent("event-dup-001", "pos-001", time.Now().UTC())

	err := store.Record(ctx, e)
	require.NoError(t, err)

	err = store.Record(ctx, e)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeEventStore_RecordInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	err := store.Record(ctx, &domain.TradeEvent{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Record(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTradeEventStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"range-001", "range-002", "range-003"} {
		e := createTestTradeEvent(id, "pos-range", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.Record(ctx, e))
	}

	// Inclusive bounds: picks up the events at +1h and +2h.
	result, err := store.GetByTimeRange(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "range-002", result[0].EventID)
	assert.Equal(t, "range-003", result[1].EventID)
}

func TestTradeEventStore_EmptyResult(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeEventStore(pool)

	result, err := store.GetByPosition(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, result)

	result, err = store.GetByTimeRange(ctx, time.Unix(0, 0), time.Unix(1, 0))
	require.NoError(t, err)
	assert.Empty(t, result)
}
