package execution

// SelectStrategy filters the table by applicability and breaks ties by the
// fixed priority: congested network prefers the cheapest gas, high impact
// prefers a split-capable strategy, high volatility prefers the fastest
// (non-split) strategy, otherwise table order wins. With no applicable entry
// the Default strategy is returned.
func SelectStrategy(table []Strategy, p Params, mc MarketConditions) Strategy {
	var applicable []Strategy
	for _, s := range table {
		if s.Applies != nil && s.Applies(p, mc) {
			applicable = append(applicable, s)
		}
	}

	switch len(applicable) {
	case 0:
		return DefaultStrategy
	case 1:
		return applicable[0]
	}

	if mc.NetworkCongestionPct > 70 {
		best := applicable[0]
		for _, s := range applicable[1:] {
			if s.GasMultiplier < best.GasMultiplier {
				best = s
			}
		}
		return best
	}

	if mc.PriceImpactPct > 5 {
		for _, s := range applicable {
			if s.SplitTrades {
				return s
			}
		}
	}

	if mc.VolatilityIndex > 30 {
		for _, s := range applicable {
			if !s.SplitTrades {
				return s
			}
		}
	}

	return applicable[0]
}
