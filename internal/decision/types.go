package decision

import (
	"time"

	"solana-autotrader/internal/domain"
)

// RuleID identifies one scoring rule. The set is closed: every confidence
// delta the scorer applies is attributable to exactly one of these, which is
// what makes the risk-factor count auditable.
type RuleID string

const (
	RuleLiquidityDeep     RuleID = "LIQUIDITY_DEEP"      // > 20x trade size
	RuleLiquidityGood     RuleID = "LIQUIDITY_GOOD"      // > 10x
	RuleLiquidityThin     RuleID = "LIQUIDITY_THIN"      // > 5x
	RuleLiquidityRisk     RuleID = "LIQUIDITY_RISK"      // <= 5x or below floor
	RuleVolumeSurge       RuleID = "VOLUME_SURGE"        // > 2x market average
	RuleVolumeElevated    RuleID = "VOLUME_ELEVATED"     // > 1.5x
	RuleVolumeWeak        RuleID = "VOLUME_WEAK"         // < 0.5x
	RuleMomentumHealthy   RuleID = "MOMENTUM_HEALTHY"    // +50..+200% 24h
	RulePumpRisk          RuleID = "PUMP_RISK"           // > +500% 24h
	RuleMomentumDump      RuleID = "MOMENTUM_DUMP"       // < -30% 24h
	RuleActivityHigh      RuleID = "ACTIVITY_HIGH"       // > 100 txns/24h
	RuleActivityLow       RuleID = "ACTIVITY_LOW"        // < 10 txns/24h
	RuleMarketCapLarge    RuleID = "MARKET_CAP_LARGE"    // > $10M
	RuleMarketCapMicro    RuleID = "MARKET_CAP_MICRO"    // < $100k
	RulePriceImpactSevere RuleID = "PRICE_IMPACT_SEVERE" // > 10%
	RulePriceImpactHigh   RuleID = "PRICE_IMPACT_HIGH"   // > 5%
	RulePriceImpactOK     RuleID = "PRICE_IMPACT_OK"     // <= 5%
	RuleQuoteFailed       RuleID = "QUOTE_FAILED"        // unquotable asset
	RuleGasCostHigh       RuleID = "GAS_COST_HIGH"       // fee > 5% of trade
)

// TriggeredRule is one scoring rule that fired, with the delta it applied.
type TriggeredRule struct {
	ID    RuleID
	Delta float64
}

// Risk reports whether the rule is a negative-scoring branch.
func (r TriggeredRule) Risk() bool {
	return r.Delta < 0
}

// Decision is the executable verdict for one asset and trade size.
// Invariant: Executable implies Confidence >= the scorer's threshold.
type Decision struct {
	Executable           bool
	Confidence           float64 // 0..100
	RiskScore            float64 // 100 - Confidence
	RecommendedAmountSOL float64
	Rules                []TriggeredRule
	RiskFactorCount      int
}

// TechnicalIndicators carries the intermediate ratios behind the decision.
type TechnicalIndicators struct {
	LiquidityMultiple float64
	VolumeRatio       float64
	PriceImpactPct    float64
	GasRatioPct       float64
}

// TradeAnalysis is the full scoring output for one candidate. Produced per
// scoring call and never persisted by the core.
type TradeAnalysis struct {
	Asset      domain.Asset
	Action     domain.TradeAction
	AmountSOL  float64
	Decision   Decision
	Snapshot   *domain.MarketSnapshot
	Indicators TechnicalIndicators
	ScoredAt   time.Time
}
