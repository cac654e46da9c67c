package domain

import "time"

// Trend direction filter values.
type Trend string

const (
	TrendAny  Trend = "ANY"
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
)

// ActivityLevel buckets 24h transaction counts.
type ActivityLevel string

const (
	ActivityAny    ActivityLevel = "ANY"
	ActivityLow    ActivityLevel = "LOW"    // < 50 txns/24h
	ActivityMedium ActivityLevel = "MEDIUM" // 50..500
	ActivityHigh   ActivityLevel = "HIGH"   // > 500
)

// AgeBucket buckets pool age.
type AgeBucket string

const (
	AgeAny         AgeBucket = "ANY"
	AgeNew         AgeBucket = "NEW"         // < 24h
	AgeEstablished AgeBucket = "ESTABLISHED" // >= 7d
)

// DynamicFilter is the predicate set a discovery strategy applies to feed
// results. Each passing predicate contributes points toward the candidate's
// discovery confidence.
type DynamicFilter struct {
	// MinVolumePercentile keeps assets whose 24h volume is at or above this
	// percentile of the strategy's result set (0 disables).
	MinVolumePercentile float64

	// MinLiquidityMultiple requires liquidity >= multiple * trade size (USD).
	MinLiquidityMultiple float64

	// MaxVolatilityPct rejects assets with |priceChange24h| above the ceiling
	// (0 disables).
	MaxVolatilityPct float64

	Age      AgeBucket
	Trend    Trend
	Activity ActivityLevel
}

// DiscoveryStrategy is configuration for one discovery pass. Pure data, no
// runtime state.
type DiscoveryStrategy struct {
	Name string

	// Feed query parameters, adapted per-cycle by market volatility.
	MinLiquidityUSD float64
	MinVolume24hUSD float64
	MaxAge          time.Duration // 0 means unlimited
	Limit           int

	Filter DynamicFilter

	// Weight in [0,1] multiplies candidate confidence from this strategy.
	Weight float64
}
