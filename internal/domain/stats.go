package domain

// TradingStats is an aggregate view derived from positions and the trade log.
// Recomputed on demand, never the source of truth.
type TradingStats struct {
	TotalTrades      int
	SuccessfulTrades int
	TotalPnlPercent  float64
	DailyTrades      int
	OpenPositions    int
}
