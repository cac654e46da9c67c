package domain

import "time"

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Exit reason codes. Evaluation order during a monitoring tick is fixed:
// target, stop, emergency, extreme profit.
const (
	ExitReasonTargetReached = "Target reached"
	ExitReasonStopLoss      = "Stop loss hit"
	ExitReasonEmergency     = "Emergency exit"
	ExitReasonExtremeProfit = "Extreme profit"
	ExitReasonShutdown      = "Shutdown"
)

// Position is an open trade tracked until closed. Created on successful entry
// execution; mutated only by the position manager during monitoring ticks.
// Exactly one OPEN -> CLOSED transition, never re-opened.
type Position struct {
	ID          string // deterministic hash, see idhash
	Mint        string
	Symbol      string
	EntryPrice  float64 // USD per token
	AmountSOL   float64 // reserved trade size in SOL
	TokenAmount float64 // tokens received at entry
	EntryTime   time.Time

	TargetPrice float64 // entry * (1 + profitTargetPercent/100)
	StopPrice   float64 // entry * (1 - stopLossPercent/100)

	CurrentPrice  float64
	UnrealizedPnl float64 // percent, signed

	Status     PositionStatus
	ClosedAt   time.Time
	ClosePrice float64
	ExitReason string
}

// PnlPercent returns the percent move from entry to price.
func (p *Position) PnlPercent(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}
