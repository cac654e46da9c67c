// Package market aggregates market-wide statistics from the feed into
// cached snapshots the rest of the pipeline adapts its thresholds to.
package market

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/feed"
)

// Defaults for snapshot capture.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultSampleSize = 50
)

// Fallback snapshot constants, used when the feed fails. Deliberately
// conservative: average liquidity and volume low enough that discovery
// tightens rather than loosens, volatility mid-band so no adaptation fires.
const (
	FallbackAvgVolumeUSD    = 50_000
	FallbackMedianVolumeUSD = 20_000
	FallbackAvgLiquidityUSD = 100_000
	FallbackMedianLiqUSD    = 40_000
	FallbackVolatilityIndex = 20
	FallbackSOLPriceUSD     = 150
)

// SnapshotProvider serves market snapshots with a TTL cache. The feed is
// consulted at most once per TTL window unless a refresh is forced; on feed
// failure callers get a static fallback snapshot, never an error.
type SnapshotProvider struct {
	provider   feed.Provider
	ttl        time.Duration
	sampleSize int
	solPrice   float64
	logger     zerolog.Logger

	mu      sync.Mutex
	cached  *domain.MarketSnapshot
	fetched time.Time
	now     func() time.Time
}

// Options configures a SnapshotProvider.
type Options struct {
	Feed        feed.Provider
	TTL         time.Duration
	SampleSize  int
	SOLPriceUSD float64 // static conversion rate; 0 uses the fallback constant
	Logger      zerolog.Logger
}

// NewSnapshotProvider creates a snapshot provider.
func NewSnapshotProvider(opts Options) *SnapshotProvider {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	sample := opts.SampleSize
	if sample == 0 {
		sample = DefaultSampleSize
	}
	sol := opts.SOLPriceUSD
	if sol == 0 {
		sol = FallbackSOLPriceUSD
	}
	return &SnapshotProvider{
		provider:   opts.Feed,
		ttl:        ttl,
		sampleSize: sample,
		solPrice:   sol,
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// GetSnapshot returns the cached snapshot when fresh, otherwise refreshes.
// Never returns nil.
func (p *SnapshotProvider) GetSnapshot(ctx context.Context, forceRefresh bool) *domain.MarketSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !forceRefresh && p.cached != nil && now.Sub(p.fetched) < p.ttl {
		return p.cached
	}

	snapshot := p.capture(ctx, now)
	p.cached = snapshot
	p.fetched = now
	return snapshot
}

// capture fetches the top-K assets and computes aggregates.
func (p *SnapshotProvider) capture(ctx context.Context, now time.Time) *domain.MarketSnapshot {
	assets, err := p.provider.ListAssets(ctx, feed.Query{Limit: p.sampleSize})
	if err != nil || len(assets) == 0 {
		if err != nil {
			p.logger.Warn().Err(err).Msg("market snapshot refresh failed, using fallback")
		}
		return p.fallback(now)
	}

	volumes := make([]float64, 0, len(assets))
	liquidities := make([]float64, 0, len(assets))
	var totalVolume, absChangeSum float64
	for _, a := range assets {
		volumes = append(volumes, a.Volume24hUSD)
		liquidities = append(liquidities, a.LiquidityUSD)
		totalVolume += a.Volume24hUSD
		absChangeSum += math.Abs(a.PriceChange24hPct)
	}

	n := float64(len(assets))
	return &domain.MarketSnapshot{
		TotalVolume24hUSD:  totalVolume,
		AvgVolume24hUSD:    totalVolume / n,
		MedianVolume24hUSD: median(volumes),
		AvgLiquidityUSD:    mean(liquidities),
		MedianLiquidityUSD: median(liquidities),
		VolatilityIndex:    absChangeSum / n,
		SOLPriceUSD:        p.solPrice,
		SampleSize:         len(assets),
		CapturedAt:         now,
	}
}

func (p *SnapshotProvider) fallback(now time.Time) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		TotalVolume24hUSD:  FallbackAvgVolumeUSD,
		AvgVolume24hUSD:    FallbackAvgVolumeUSD,
		MedianVolume24hUSD: FallbackMedianVolumeUSD,
		AvgLiquidityUSD:    FallbackAvgLiquidityUSD,
		MedianLiquidityUSD: FallbackMedianLiqUSD,
		VolatilityIndex:    FallbackVolatilityIndex,
		SOLPriceUSD:        p.solPrice,
		SampleSize:         0,
		CapturedAt:         now,
		Fallback:           true,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
