package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/feed/stub"
)

func testAsset(mint string, volume, liquidity, change float64) *domain.Asset {
	return &domain.Asset{
		Mint:              mint,
		Symbol:            mint,
		LiquidityUSD:      liquidity,
		Volume24hUSD:      volume,
		PriceChange24hPct: change,
		CreatedAt:         time.Now().Add(-48 * time.Hour),
	}
}

func TestGetSnapshot_Aggregates(t *testing.T) {
	f := stub.NewFeed()
	f.Put(testAsset("a", 100, 1000, 10))
	f.Put(testAsset("b", 200, 3000, -30))
	f.Put(testAsset("c", 300, 2000, 20))

	p := NewSnapshotProvider(Options{Feed: f, Logger: zerolog.Nop()})

	s := p.GetSnapshot(context.Background(), false)
	if s == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if s.Fallback {
		t.Fatal("expected live snapshot, got fallback")
	}
	if s.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", s.SampleSize)
	}
	if s.TotalVolume24hUSD != 600 {
		t.Errorf("TotalVolume = %f, want 600", s.TotalVolume24hUSD)
	}
	if s.AvgVolume24hUSD != 200 {
		t.Errorf("AvgVolume = %f, want 200", s.AvgVolume24hUSD)
	}
	if s.MedianVolume24hUSD != 200 {
		t.Errorf("MedianVolume = %f, want 200", s.MedianVolume24hUSD)
	}
	if s.MedianLiquidityUSD != 2000 {
		t.Errorf("MedianLiquidity = %f, want 2000", s.MedianLiquidityUSD)
	}
	// volatility index = mean(|10|, |-30|, |20|) = 20
	if s.VolatilityIndex != 20 {
		t.Errorf("VolatilityIndex = %f, want 20", s.VolatilityIndex)
	}
}

func TestGetSnapshot_CacheTTL(t *testing.T) {
	f := stub.NewFeed()
	f.Put(testAsset("a", 100, 1000, 10))

	p := NewSnapshotProvider(Options{Feed: f, TTL: time.Minute, Logger: zerolog.Nop()})

	now := time.Unix(1_700_000_000, 0)
	p.now = func() time.Time { return now }

	first := p.GetSnapshot(context.Background(), false)

	// Within TTL: same snapshot even after feed contents change.
	f.Put(testAsset("b", 500, 1000, 10))
	now = now.Add(30 * time.Second)
	second := p.GetSnapshot(context.Background(), false)
	if first != second {
		t.Error("expected cached snapshot within TTL")
	}

	// Forced refresh bypasses the cache.
	third := p.GetSnapshot(context.Background(), true)
	if third == second {
		t.Error("expected fresh snapshot on forced refresh")
	}
	if third.SampleSize != 2 {
		t.Errorf("SampleSize = %d, want 2", third.SampleSize)
	}

	// Past TTL: refreshed automatically.
	now = now.Add(2 * time.Minute)
	fourth := p.GetSnapshot(context.Background(), false)
	if fourth == third {
		t.Error("expected fresh snapshot after TTL expiry")
	}
}

func TestGetSnapshot_FallbackOnFeedFailure(t *testing.T) {
	f := stub.NewFeed()
	f.Fail(errors.New("feed down"))

	p := NewSnapshotProvider(Options{Feed: f, Logger: zerolog.Nop()})

	s := p.GetSnapshot(context.Background(), false)
	if s == nil {
		t.Fatal("expected fallback snapshot, got nil")
	}
	if !s.Fallback {
		t.Error("expected Fallback=true")
	}
	if s.AvgVolume24hUSD != FallbackAvgVolumeUSD {
		t.Errorf("AvgVolume = %f, want fallback %d", s.AvgVolume24hUSD, FallbackAvgVolumeUSD)
	}
	if s.VolatilityIndex != FallbackVolatilityIndex {
		t.Errorf("VolatilityIndex = %f, want fallback %d", s.VolatilityIndex, FallbackVolatilityIndex)
	}
}
