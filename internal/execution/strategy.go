// Package execution selects and runs execution strategies: slippage and fee
// tuning, and split-order plans for large-impact trades.
package execution

import (
	"time"

	"solana-autotrader/internal/domain"
)

// Split execution constants. Trades above SplitThresholdSOL are divided into
// ceil(amount/SplitChunkSOL) sub-orders, capped by the strategy's MaxSplits.
const (
	SplitThresholdSOL = 0.05
	SplitChunkSOL     = 0.02
)

// MarketConditions feeds strategy applicability predicates.
type MarketConditions struct {
	NetworkCongestionPct float64 // 0..100
	PriceImpactPct       float64 // estimated impact for the pending trade
	VolatilityIndex      float64 // from the market snapshot
}

// Params describes the trade the optimizer is asked to place.
type Params struct {
	Mint            string
	Action          domain.TradeAction
	AmountSOL       float64 // SOL in for buys
	TokenAmount     float64 // tokens in for sells
	BaseSlippagePct float64
	PartialFill     bool // keep already-filled splits when a later one fails
	MEVProtection   bool // random 1-3s delay before non-split submission
}

// Strategy is one row of the static execution policy table.
type Strategy struct {
	Name               string
	SlippageMultiplier float64
	GasMultiplier      float64
	SplitTrades        bool
	MaxSplits          int
	DelayBetweenSplits time.Duration

	// Applies reports whether the strategy suits the trade and conditions.
	// Nil means never applicable (the Default fallback has no predicate).
	Applies func(p Params, mc MarketConditions) bool
}

// DefaultStrategy is the fallback when no table entry applies.
var DefaultStrategy = Strategy{
	Name:               "Default",
	SlippageMultiplier: 1.0,
	GasMultiplier:      1.1,
}

// DefaultTable returns the built-in strategy table, in priority order.
func DefaultTable() []Strategy {
	return []Strategy{
		{
			Name:               "CongestionSaver",
			SlippageMultiplier: 1.2,
			GasMultiplier:      0.9,
			Applies: func(_ Params, mc MarketConditions) bool {
				return mc.NetworkCongestionPct > 70
			},
		},
		{
			Name:               "ImpactSplitter",
			SlippageMultiplier: 1.1,
			GasMultiplier:      1.2,
			SplitTrades:        true,
			MaxSplits:          5,
			DelayBetweenSplits: 2 * time.Second,
			Applies: func(p Params, mc MarketConditions) bool {
				return mc.PriceImpactPct > 5 && p.AmountSOL > SplitThresholdSOL
			},
		},
		{
			Name:               "VolatilitySprint",
			SlippageMultiplier: 1.5,
			GasMultiplier:      1.3,
			Applies: func(_ Params, mc MarketConditions) bool {
				return mc.VolatilityIndex > 30
			},
		},
	}
}
