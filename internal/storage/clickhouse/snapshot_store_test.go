package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solana-autotrader/internal/domain"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, EnsureSchema(ctx, conn))

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func TestSnapshotStore_InsertAndGetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(conn)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	snapshots := []*domain.MarketSnapshot{
		{
			TotalVolume24hUSD:  5_000_000,
			AvgVolume24hUSD:    100_000,
			MedianVolume24hUSD: 40_000,
			AvgLiquidityUSD:    250_000,
			MedianLiquidityUSD: 80_000,
			VolatilityIndex:    22.5,
			SOLPriceUSD:        150,
			SampleSize:         50,
			CapturedAt:         base,
		},
		{
			AvgVolume24hUSD: 50_000,
			SOLPriceUSD:     150,
			SampleSize:      0,
			CapturedAt:      base.Add(5 * time.Minute),
			Fallback:        true,
		},
		{
			AvgVolume24hUSD: 110_000,
			SOLPriceUSD:     152,
			SampleSize:      50,
			CapturedAt:      base.Add(time.Hour),
		},
	}
	for _, snap := range snapshots {
		require.NoError(t, store.Insert(ctx, snap))
	}

	// Inclusive bounds: the first two snapshots fall inside the window.
	result, err := store.GetByTimeRange(ctx, base, base.Add(30*time.Minute))
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.True(t, result[0].CapturedAt.Equal(base), "capture time round-trip")
	assert.InDelta(t, 5_000_000, result[0].TotalVolume24hUSD, 0.001)
	assert.InDelta(t, 100_000, result[0].AvgVolume24hUSD, 0.001)
	assert.InDelta(t, 40_000, result[0].MedianVolume24hUSD, 0.001)
	assert.InDelta(t, 250_000, result[0].AvgLiquidityUSD, 0.001)
	assert.InDelta(t, 80_000, result[0].MedianLiquidityUSD, 0.001)
	assert.InDelta(t, 22.5, result[0].VolatilityIndex, 0.001)
	assert.InDelta(t, 150, result[0].SOLPriceUSD, 0.001)
	assert.Equal(t, 50, result[0].SampleSize)
	assert.False(t, result[0].Fallback)

	assert.True(t, result[1].Fallback, "fallback flag round-trip")
	assert.Equal(t, 0, result[1].SampleSize)
}

func TestSnapshotStore_InsertInvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	err := store.Insert(context.Background(), nil)
	assert.Error(t, err)
}

func TestSnapshotStore_EmptyResult(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	result, err := store.GetByTimeRange(context.Background(), time.Unix(0, 0), time.Unix(1, 0))
	require.NoError(t, err)
	assert.Empty(t, result)
}
