// Package discovery runs weighted discovery strategies against the feed and
// merges their candidates into a single ranked list.
package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/feed"
)

// Volatility adaptation bands. High volatility tightens liquidity and
// volatility requirements; a quiet market relaxes the volume floor.
const (
	highVolatilityIndex     = 30.0
	lowVolatilityIndex      = 10.0
	highVolLiquidityFactor  = 1.5
	highVolVolatilityFactor = 0.7
	lowVolVolumeFactor      = 0.8
)

// Engine merges candidates produced by independently weighted strategies.
type Engine struct {
	provider  feed.Provider
	blacklist map[string]struct{}
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a discovery engine. blacklist mints are dropped from
// every strategy's output.
func NewEngine(provider feed.Provider, blacklist []string, logger zerolog.Logger) *Engine {
	bl := make(map[string]struct{}, len(blacklist))
	for _, mint := range blacklist {
		bl[mint] = struct{}{}
	}
	return &Engine{
		provider:  provider,
		blacklist: bl,
		logger:    logger,
		now:       time.Now,
	}
}

// Discover runs every strategy, merges and deduplicates candidates by mint
// keeping the highest confidence, and returns the top maxResults sorted by
// confidence descending. A failing strategy is logged and skipped; it never
// aborts the whole call.
func (e *Engine) Discover(ctx context.Context, strategies []domain.DiscoveryStrategy, tradeAmountSOL float64, maxResults int, snapshot *domain.MarketSnapshot) []*domain.CandidateAsset {
	merged := make(map[string]*domain.CandidateAsset)

	for _, strat := range strategies {
		candidates, err := e.runStrategy(ctx, strat, tradeAmountSOL, snapshot)
		if err != nil {
			e.logger.Warn().Err(err).Str("strategy", strat.Name).Msg("discovery strategy failed, skipping")
			continue
		}
		for _, c := range candidates {
			existing, ok := merged[c.Asset.Mint]
			if !ok || c.Confidence > existing.Confidence {
				merged[c.Asset.Mint] = c
			}
		}
	}

	out := make([]*domain.CandidateAsset, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Asset.Mint < out[j].Asset.Mint
	})

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// runStrategy executes one strategy: adapt parameters to market volatility,
// query the feed, apply the dynamic filter, score survivors.
func (e *Engine) runStrategy(ctx context.Context, strat domain.DiscoveryStrategy, tradeAmountSOL float64, snapshot *domain.MarketSnapshot) ([]*domain.CandidateAsset, error) {
	adapted := adaptStrategy(strat, snapshot)

	assets, err := e.provider.ListAssets(ctx, feed.Query{
		MinLiquidityUSD: adapted.MinLiquidityUSD,
		MinVolume24hUSD: adapted.MinVolume24hUSD,
		MaxAge:          adapted.MaxAge,
		Limit:           adapted.Limit,
	})
	if err != nil {
		return nil, err
	}

	tradeAmountUSD := tradeAmountSOL * snapshot.SOLPriceUSD
	percentiles := volumePercentiles(assets)
	now := e.now()

	var candidates []*domain.CandidateAsset
	for i, a := range assets {
		if _, banned := e.blacklist[a.Mint]; banned {
			continue
		}
		res := applyFilter(adapted.Filter, a, tradeAmountUSD, percentiles[i], now)
		if !res.pass {
			continue
		}

		confidence := baseConfidence + res.points
		if confidence > maxConfidence {
			confidence = maxConfidence
		}
		confidence *= adapted.Weight

		candidates = append(candidates, &domain.CandidateAsset{
			Asset:      *a,
			Strategy:   adapted.Name,
			Confidence: confidence,
			Reasons:    res.reasons,
		})
	}
	return candidates, nil
}

// adaptStrategy widens or narrows strategy parameters based on the market
// volatility index. Returns a copy; strategy configs are never mutated.
func adaptStrategy(strat domain.DiscoveryStrategy, snapshot *domain.MarketSnapshot) domain.DiscoveryStrategy {
	adapted := strat
	switch {
	case snapshot.VolatilityIndex > highVolatilityIndex:
		adapted.MinLiquidityUSD = strat.MinLiquidityUSD * highVolLiquidityFactor
		adapted.Filter.MaxVolatilityPct = strat.Filter.MaxVolatilityPct * highVolVolatilityFactor
	case snapshot.VolatilityIndex < lowVolatilityIndex:
		adapted.MinVolume24hUSD = strat.MinVolume24hUSD * lowVolVolumeFactor
	}
	return adapted
}
