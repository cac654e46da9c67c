// Package stub provides a scriptable in-memory chain executor for tests and
// dry runs.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-autotrader/internal/chain"
	"solana-autotrader/internal/domain"
)

// ErrQuoteUnavailable is returned when a mint has no scripted quote.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Executor is an in-memory chain.Executor. Quotes and prices are scripted
// per mint; trades fill at the scripted price unless FailTrades is set.
type Executor struct {
	mu         sync.Mutex
	quotes     map[string]chain.Quote
	balance    float64
	status     chain.NetworkStatus
	failTrades bool
	trades     []chain.TradeParams
}

// NewExecutor creates a stub executor with the given SOL balance.
func NewExecutor(balanceSOL float64) *Executor {
	return &Executor{
		quotes:  make(map[string]chain.Quote),
		balance: balanceSOL,
		status:  chain.NetworkStatus{CongestionPct: 20, PriorityFeeSOL: 0.0001},
	}
}

// SetQuote scripts the quote returned for a mint.
func (e *Executor) SetQuote(mint string, q chain.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quotes[mint] = q
}

// RemoveQuote makes subsequent quotes for the mint fail.
func (e *Executor) RemoveQuote(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.quotes, mint)
}

// SetNetworkStatus scripts network conditions.
func (e *Executor) SetNetworkStatus(s chain.NetworkStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
}

// FailTrades makes all subsequent ExecuteTrade calls fail.
func (e *Executor) FailTrades(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failTrades = fail
}

// Trades returns a copy of all submitted trade params, in order.
func (e *Executor) Trades() []chain.TradeParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]chain.TradeParams, len(e.trades))
	copy(out, e.trades)
	return out
}

// Quote returns the scripted quote or ErrQuoteUnavailable.
func (e *Executor) Quote(_ context.Context, mint string, _ domain.TradeAction, amountSOL float64) (*chain.Quote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, ok := e.quotes[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, mint)
	}
	cp := q
	if cp.ExpectedOut == 0 && cp.PricePerUnit > 0 {
		cp.ExpectedOut = amountSOL / cp.PricePerUnit
	}
	return &cp, nil
}

// ExecuteTrade records the params and fills at the scripted price.
func (e *Executor) ExecuteTrade(_ context.Context, params chain.TradeParams) (*chain.TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.trades = append(e.trades, params)

	if e.failTrades {
		return &chain.TradeResult{Success: false, Err: "trade reverted"}, nil
	}

	q, ok := e.quotes[params.Mint]
	if !ok {
		return &chain.TradeResult{Success: false, Err: "no route"}, nil
	}

	txHash := fmt.Sprintf("stub-tx-%d", len(e.trades))
	if params.Action == domain.ActionBuy {
		return &chain.TradeResult{
			Success:        true,
			AmountInSOL:    params.AmountSOL,
			AmountOut:      params.AmountSOL / q.PricePerUnit,
			ExecutionPrice: q.PricePerUnit,
			TxHash:         txHash,
		}, nil
	}
	return &chain.TradeResult{
		Success:        true,
		AmountInSOL:    params.TokenAmount * q.PricePerUnit,
		AmountOut:      params.TokenAmount * q.PricePerUnit,
		ExecutionPrice: q.PricePerUnit,
		TxHash:         txHash,
	}, nil
}

// WalletBalance returns the scripted balance.
func (e *Executor) WalletBalance(context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance, nil
}

// NetworkStatus returns the scripted conditions.
func (e *Executor) NetworkStatus(context.Context) (*chain.NetworkStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.status
	return &cp, nil
}

var _ chain.Executor = (*Executor)(nil)
