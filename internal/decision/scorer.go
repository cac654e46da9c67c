// Package decision scores candidate assets into executable trade decisions.
// The scoring is an ordered, additive, capped rule table: every branch and
// threshold below is contract, so property tests on monotonicity hold.
package decision

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/chain"
	"solana-autotrader/internal/domain"
)

// Scoring constants. Deltas are applied to a base of 50 and the result is
// clamped to [0, 100].
const (
	baseScore = 50.0

	liquidityDeepMultiple = 20.0
	liquidityGoodMultiple = 10.0
	liquidityThinMultiple = 5.0

	// Pools under this floor are a hard liquidity risk no matter how small
	// the trade is relative to them. Placeholder policy: the floor stands in
	// for depth data the feed does not provide for small pools.
	liquidityFloorUSD = 50_000

	volumeSurgeRatio    = 2.0
	volumeElevatedRatio = 1.5
	volumeWeakRatio     = 0.5

	momentumHealthyMinPct = 50.0
	momentumHealthyMaxPct = 200.0
	pumpRiskPct           = 500.0
	dumpPct               = -30.0

	activityHighTxns = 100
	activityLowTxns  = 10

	marketCapLargeUSD = 10_000_000
	marketCapMicroUSD = 100_000

	impactSeverePct = 10.0
	impactHighPct   = 5.0

	gasRatioLimitPct = 5.0

	// DefaultMinConfidence is the executable threshold.
	DefaultMinConfidence = 60.0

	// maxRiskFactors is the most negative branches a trade may trigger and
	// still be executable.
	maxRiskFactors = 2
)

// Advisor is an optional external scorer blended into confidence. The scorer
// works with no advisor at all; advisor failure falls back to the local score.
type Advisor interface {
	// Advise returns an independent confidence estimate in [0, 100].
	Advise(ctx context.Context, analysis *TradeAnalysis) (float64, error)
}

// Scorer computes trade decisions from asset stats, market snapshots and
// on-chain quotes.
type Scorer struct {
	executor      chain.Executor
	advisor       Advisor // nil when absent
	minConfidence float64
	logger        zerolog.Logger
	now           func() time.Time
}

// Options configures a Scorer.
type Options struct {
	Executor      chain.Executor
	Advisor       Advisor
	MinConfidence float64 // 0 uses DefaultMinConfidence
	Logger        zerolog.Logger
}

// NewScorer creates a scorer.
func NewScorer(opts Options) *Scorer {
	minConf := opts.MinConfidence
	if minConf == 0 {
		minConf = DefaultMinConfidence
	}
	return &Scorer{
		executor:      opts.Executor,
		advisor:       opts.Advisor,
		minConfidence: minConf,
		logger:        opts.Logger,
		now:           time.Now,
	}
}

// Score evaluates one candidate at the given trade size. Never returns an
// error: unquotable or thin assets score low rather than failing the caller.
func (s *Scorer) Score(ctx context.Context, asset *domain.Asset, amountSOL float64, action domain.TradeAction, snapshot *domain.MarketSnapshot) *TradeAnalysis {
	analysis := &TradeAnalysis{
		Asset:     *asset,
		Action:    action,
		AmountSOL: amountSOL,
		Snapshot:  snapshot,
		ScoredAt:  s.now(),
	}

	score := baseScore
	apply := func(id RuleID, delta float64) {
		score += delta
		analysis.Decision.Rules = append(analysis.Decision.Rules, TriggeredRule{ID: id, Delta: delta})
	}

	tradeAmountUSD := amountSOL * snapshot.SOLPriceUSD

	// Liquidity multiple.
	liqMultiple := 0.0
	if tradeAmountUSD > 0 {
		liqMultiple = asset.LiquidityUSD / tradeAmountUSD
	}
	analysis.Indicators.LiquidityMultiple = liqMultiple
	switch {
	case asset.LiquidityUSD < liquidityFloorUSD || liqMultiple <= liquidityThinMultiple:
		apply(RuleLiquidityRisk, -30)
	case liqMultiple > liquidityDeepMultiple:
		apply(RuleLiquidityDeep, +20)
	case liqMultiple > liquidityGoodMultiple:
		apply(RuleLiquidityGood, +10)
	default:
		apply(RuleLiquidityThin, +5)
	}

	// Volume ratio against the market average.
	volumeRatio := 0.0
	if snapshot.AvgVolume24hUSD > 0 {
		volumeRatio = asset.Volume24hUSD / snapshot.AvgVolume24hUSD
	}
	analysis.Indicators.VolumeRatio = volumeRatio
	switch {
	case volumeRatio > volumeSurgeRatio:
		apply(RuleVolumeSurge, +15)
	case volumeRatio > volumeElevatedRatio:
		apply(RuleVolumeElevated, +10)
	case volumeRatio < volumeWeakRatio:
		apply(RuleVolumeWeak, -15)
	}

	// Momentum, buy side only.
	if action == domain.ActionBuy {
		change := asset.PriceChange24hPct
		switch {
		case change > pumpRiskPct:
			apply(RulePumpRisk, -25)
		case change >= momentumHealthyMinPct && change <= momentumHealthyMaxPct:
			apply(RuleMomentumHealthy, +15)
		case change < dumpPct:
			apply(RuleMomentumDump, -10)
		}
	}

	// Transaction activity.
	switch {
	case asset.TxCount24h > activityHighTxns:
		apply(RuleActivityHigh, +10)
	case asset.TxCount24h < activityLowTxns:
		apply(RuleActivityLow, -15)
	}

	// Market-cap bucket. Zero means unknown and triggers no branch.
	if asset.MarketCapUSD > 0 {
		switch {
		case asset.MarketCapUSD > marketCapLargeUSD:
			apply(RuleMarketCapLarge, +5)
		case asset.MarketCapUSD < marketCapMicroUSD:
			apply(RuleMarketCapMicro, -20)
		}
	}

	// On-chain quote validation. An unquotable asset is risky, never neutral.
	quote, err := s.executor.Quote(ctx, asset.Mint, action, amountSOL)
	if err != nil || quote == nil {
		s.logger.Debug().Err(err).Str("mint", asset.Mint).Msg("quote failed during scoring")
		apply(RuleQuoteFailed, -20)
	} else {
		analysis.Indicators.PriceImpactPct = quote.PriceImpactPct
		switch {
		case quote.PriceImpactPct > impactSeverePct:
			apply(RulePriceImpactSevere, -25)
		case quote.PriceImpactPct > impactHighPct:
			apply(RulePriceImpactHigh, -10)
		default:
			apply(RulePriceImpactOK, +5)
		}

		if amountSOL > 0 {
			gasRatio := quote.EstimatedFeeSOL / amountSOL * 100
			analysis.Indicators.GasRatioPct = gasRatio
			if gasRatio > gasRatioLimitPct {
				apply(RuleGasCostHigh, -15)
			}
		}
	}

	confidence := clamp(score, 0, 100)

	// Optional advisor blending: average of local and advisor confidence.
	if s.advisor != nil {
		advisorScore, err := s.advisor.Advise(ctx, analysis)
		if err != nil {
			s.logger.Warn().Err(err).Str("mint", asset.Mint).Msg("advisor unavailable, using local score")
		} else {
			confidence = clamp((confidence+advisorScore)/2, 0, 100)
		}
	}

	riskFactors := 0
	for _, r := range analysis.Decision.Rules {
		if r.Risk() {
			riskFactors++
		}
	}

	analysis.Decision.Confidence = confidence
	analysis.Decision.RiskScore = 100 - confidence
	analysis.Decision.RiskFactorCount = riskFactors
	analysis.Decision.Executable = confidence >= s.minConfidence && riskFactors <= maxRiskFactors
	analysis.Decision.RecommendedAmountSOL = recommendedAmount(amountSOL, confidence, analysis.Decision.Executable)

	return analysis
}

// recommendedAmount sizes the trade from confidence. Placeholder policy:
// full size at 80+, half size between the threshold and 80, zero otherwise.
func recommendedAmount(requested, confidence float64, executable bool) float64 {
	if !executable {
		return 0
	}
	if confidence >= 80 {
		return requested
	}
	return requested / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
