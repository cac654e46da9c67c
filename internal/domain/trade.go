package domain

import "time"

// Trade event types recorded to the trade log.
const (
	TradeEventEntry = "ENTRY"
	TradeEventExit  = "EXIT"
)

// TradeEvent is one entry or exit recorded to the trade log. Recording is
// fire-and-forget from the trading core's perspective.
type TradeEvent struct {
	EventID    string // deterministic hash, see idhash
	Type       string // ENTRY | EXIT
	PositionID string
	Mint       string
	Symbol     string
	Action     TradeAction
	AmountSOL  float64
	PriceUSD   float64
	TxHash     string
	Reason     string
	PnlPercent float64 // exits only
	Timestamp  time.Time
}
