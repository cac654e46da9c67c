// Package chain defines the on-chain execution collaborator. The trading core
// never signs or submits transactions itself; it talks to an Executor that
// reports structured success or failure, never partial silent success.
package chain

import (
	"context"

	"solana-autotrader/internal/domain"
)

// Quote is the result of an on-chain quote for a prospective trade.
type Quote struct {
	ExpectedOut     float64 // tokens out for a buy, SOL out for a sell
	PricePerUnit    float64 // USD per token implied by the quote
	PriceImpactPct  float64 // estimated deviation from the ideal output
	EstimatedFeeSOL float64 // network fee + priority fee for this trade
}

// TradeParams describes a single order handed to the executor.
type TradeParams struct {
	Mint        string
	Action      domain.TradeAction
	AmountSOL   float64 // SOL in for buys
	TokenAmount float64 // tokens in for sells
	SlippagePct float64
	MaxFeeSOL   float64 // 0 means executor default
}

// TradeResult reports the outcome of a submitted trade.
type TradeResult struct {
	Success        bool
	AmountInSOL    float64
	AmountOut      float64 // tokens for buys, SOL for sells
	ExecutionPrice float64 // USD per token actually paid/received
	TxHash         string
	Err            string // populated when Success is false
}

// NetworkStatus summarizes current chain conditions for execution tuning.
type NetworkStatus struct {
	CongestionPct  float64 // 0..100
	PriorityFeeSOL float64 // current competitive priority fee
}

// Executor submits trades and serves quotes and balances.
type Executor interface {
	// Quote estimates output, price impact and fees for the given trade.
	Quote(ctx context.Context, mint string, action domain.TradeAction, amountSOL float64) (*Quote, error)

	// ExecuteTrade submits a single order. A failed trade returns a result
	// with Success=false and Err set; the error return is reserved for
	// transport-level failures.
	ExecuteTrade(ctx context.Context, params TradeParams) (*TradeResult, error)

	// WalletBalance returns the spendable SOL balance.
	WalletBalance(ctx context.Context) (float64, error)

	// NetworkStatus reports current congestion and fee conditions.
	NetworkStatus(ctx context.Context) (*NetworkStatus, error)
}
