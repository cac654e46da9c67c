package discovery

import (
	"time"

	"solana-autotrader/internal/domain"
)

// DefaultStrategies returns the built-in discovery strategy table. Weights
// reflect historical reliability: volume leaders are the safest source, fresh
// pools the noisiest.
func DefaultStrategies() []domain.DiscoveryStrategy {
	return []domain.DiscoveryStrategy{
		{
			Name:            "volume-leaders",
			MinLiquidityUSD: 100_000,
			MinVolume24hUSD: 250_000,
			Limit:           30,
			Filter: domain.DynamicFilter{
				MinVolumePercentile:  50,
				MinLiquidityMultiple: 20,
				MaxVolatilityPct:     80,
				Trend:                domain.TrendUp,
				Activity:             domain.ActivityHigh,
			},
			Weight: 1.0,
		},
		{
			Name:            "steady-gainers",
			MinLiquidityUSD: 50_000,
			MinVolume24hUSD: 50_000,
			Limit:           30,
			Filter: domain.DynamicFilter{
				MinLiquidityMultiple: 10,
				MaxVolatilityPct:     40,
				Age:                  domain.AgeEstablished,
				Trend:                domain.TrendUp,
			},
			Weight: 0.9,
		},
		{
			Name:            "fresh-pools",
			MinLiquidityUSD: 25_000,
			MinVolume24hUSD: 10_000,
			MaxAge:          24 * time.Hour,
			Limit:           20,
			Filter: domain.DynamicFilter{
				MinLiquidityMultiple: 10,
				Age:                  domain.AgeNew,
				Activity:             domain.ActivityMedium,
			},
			Weight: 0.6,
		},
	}
}
