package domain

import "time"

// MarketSnapshot holds aggregate market-wide statistics over a bounded asset
// sample. Created on demand, cached with a TTL, never mutated in place.
type MarketSnapshot struct {
	TotalVolume24hUSD  float64
	AvgVolume24hUSD    float64
	MedianVolume24hUSD float64
	AvgLiquidityUSD    float64
	MedianLiquidityUSD float64

	// VolatilityIndex is mean(|priceChange24h|) over the sample.
	VolatilityIndex float64

	// SOLPriceUSD converts SOL-denominated trade sizes to USD for the
	// liquidity-multiple and market-cap checks.
	SOLPriceUSD float64

	SampleSize int
	CapturedAt time.Time
	Fallback   bool // true when the feed failed and static constants were used
}
