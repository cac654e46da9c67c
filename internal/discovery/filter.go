package discovery

import (
	"sort"
	"time"

	"solana-autotrader/internal/domain"
)

// Discovery confidence scoring. Each enabled predicate that passes adds its
// points on top of the base; disabled predicates add nothing. The sum is
// capped before the strategy weight is applied.
const (
	baseConfidence = 50.0
	maxConfidence  = 95.0

	pointsVolumePercentile  = 10.0
	pointsLiquidityMultiple = 15.0
	pointsVolatility        = 10.0
	pointsAge               = 5.0
	pointsTrend             = 10.0
	pointsActivity          = 5.0
)

// Activity bucket boundaries (txns per 24h).
const (
	activityLowMax  = 50
	activityHighMin = 500
)

// Age bucket boundaries.
const (
	ageNewMax         = 24 * time.Hour
	ageEstablishedMin = 7 * 24 * time.Hour
)

// filterResult is the outcome of applying a DynamicFilter to one asset.
type filterResult struct {
	pass    bool
	points  float64
	reasons []string
}

// applyFilter evaluates every enabled predicate against the asset. The asset
// survives only if all enabled predicates pass; points accumulate per pass.
// volumePercentileOf maps an asset's volume to its percentile within the
// strategy's result set.
func applyFilter(f domain.DynamicFilter, a *domain.Asset, tradeAmountUSD float64, volumePercentile float64, now time.Time) filterResult {
	res := filterResult{pass: true}

	if f.MinVolumePercentile > 0 {
		if volumePercentile < f.MinVolumePercentile {
			res.pass = false
			return res
		}
		res.points += pointsVolumePercentile
		res.reasons = append(res.reasons, "volume percentile")
	}

	if f.MinLiquidityMultiple > 0 && tradeAmountUSD > 0 {
		if a.LiquidityUSD < f.MinLiquidityMultiple*tradeAmountUSD {
			res.pass = false
			return res
		}
		res.points += pointsLiquidityMultiple
		res.reasons = append(res.reasons, "liquidity multiple")
	}

	if f.MaxVolatilityPct > 0 {
		change := a.PriceChange24hPct
		if change < 0 {
			change = -change
		}
		if change > f.MaxVolatilityPct {
			res.pass = false
			return res
		}
		res.points += pointsVolatility
		res.reasons = append(res.reasons, "volatility ceiling")
	}

	if f.Age != "" && f.Age != domain.AgeAny {
		if !ageMatches(f.Age, a.Age(now)) {
			res.pass = false
			return res
		}
		res.points += pointsAge
		res.reasons = append(res.reasons, "age bucket")
	}

	if f.Trend != "" && f.Trend != domain.TrendAny {
		if !trendMatches(f.Trend, a.PriceChange24hPct) {
			res.pass = false
			return res
		}
		res.points += pointsTrend
		res.reasons = append(res.reasons, "trend")
	}

	if f.Activity != "" && f.Activity != domain.ActivityAny {
		if activityBucket(a.TxCount24h) != f.Activity {
			res.pass = false
			return res
		}
		res.points += pointsActivity
		res.reasons = append(res.reasons, "activity level")
	}

	return res
}

func ageMatches(bucket domain.AgeBucket, age time.Duration) bool {
	switch bucket {
	case domain.AgeNew:
		return age > 0 && age < ageNewMax
	case domain.AgeEstablished:
		return age >= ageEstablishedMin
	default:
		return true
	}
}

func trendMatches(trend domain.Trend, change24h float64) bool {
	switch trend {
	case domain.TrendUp:
		return change24h > 0
	case domain.TrendDown:
		return change24h < 0
	default:
		return true
	}
}

func activityBucket(txCount int) domain.ActivityLevel {
	switch {
	case txCount > activityHighMin:
		return domain.ActivityHigh
	case txCount >= activityLowMax:
		return domain.ActivityMedium
	default:
		return domain.ActivityLow
	}
}

// volumePercentiles maps each asset index to the percentile of its 24h volume
// within the set (0..100, higher volume means higher percentile).
func volumePercentiles(assets []*domain.Asset) []float64 {
	n := len(assets)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = 100
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return assets[idx[a]].Volume24hUSD < assets[idx[b]].Volume24hUSD
	})
	for rank, i := range idx {
		out[i] = float64(rank) / float64(n-1) * 100
	}
	return out
}
