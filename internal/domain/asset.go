package domain

import "time"

// TradeAction is the direction of a trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Asset represents a tradable token discovered from the feed.
// Immutable within a discovery cycle; refreshed on the next cycle.
type Asset struct {
	Mint              string  // token mint address, primary identity
	Symbol            string
	Name              string
	PriceUSD          float64
	LiquidityUSD      float64
	Volume24hUSD      float64
	PriceChange24hPct float64 // signed percentage, e.g. +40.0
	TxCount24h        int
	MarketCapUSD      float64 // 0 when unknown
	CreatedAt         time.Time
}

// Age returns time since the asset's pool creation.
func (a *Asset) Age(now time.Time) time.Duration {
	if a.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(a.CreatedAt)
}
