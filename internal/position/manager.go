// Package position tracks open positions and applies exit rules during
// monitoring ticks.
package position

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/execution"
	"solana-autotrader/internal/feed"
	"solana-autotrader/internal/idhash"
	"solana-autotrader/internal/storage"
)

// ErrPositionClosed is returned when a close is requested for a position that
// is not in the open set.
var ErrPositionClosed = errors.New("position already closed")

// Exit rule thresholds. Emergency closes a stale losing position; extreme
// profit locks in gains that are statistically likely to retrace.
const (
	emergencyMaxAge    = 24 * time.Hour
	emergencyLossPct   = -50
	extremeProfitPct   = 200
	exitBaseSlippage   = 1.0
	defaultProfitPct   = 50
	defaultStopLossPct = 20
)

// TradeExecutor places exit trades. Satisfied by *execution.Optimizer.
type TradeExecutor interface {
	Execute(ctx context.Context, p execution.Params, strategy execution.Strategy) (*execution.Result, error)
}

// Options configures a Manager.
type Options struct {
	Provider feed.Provider
	Executor TradeExecutor

	// Events and Archive are fire-and-forget sinks; either may be nil.
	Events  storage.TradeEventStore
	Archive storage.PositionStore

	ProfitTargetPct float64
	StopLossPct     float64

	Logger zerolog.Logger
	Now    func() time.Time
}

// Manager owns the open-position set. All mutation happens under one mutex;
// a position transitions OPEN to CLOSED exactly once and is never re-opened.
type Manager struct {
	provider feed.Provider
	executor TradeExecutor
	events   storage.TradeEventStore
	archive  storage.PositionStore
	logger   zerolog.Logger
	now      func() time.Time

	profitTargetPct float64
	stopLossPct     float64

	mu               sync.Mutex
	open             map[string]*domain.Position
	totalTrades      int
	successfulTrades int
	totalPnlPercent  float64
}

// NewManager creates a position manager.
func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProfitTargetPct <= 0 {
		opts.ProfitTargetPct = defaultProfitPct
	}
	if opts.StopLossPct <= 0 {
		opts.StopLossPct = defaultStopLossPct
	}
	return &Manager{
		provider:        opts.Provider,
		executor:        opts.Executor,
		events:          opts.Events,
		archive:         opts.Archive,
		logger:          opts.Logger,
		now:             opts.Now,
		profitTargetPct: opts.ProfitTargetPct,
		stopLossPct:     opts.StopLossPct,
		open:            make(map[string]*domain.Position),
	}
}

// Open creates a position from a successful entry execution and records the
// entry to the trade log.
func (m *Manager) Open(ctx context.Context, asset *domain.Asset, entryPrice, amountSOL, tokenAmount float64, txHash string) (*domain.Position, error) {
	if asset == nil || entryPrice <= 0 || amountSOL <= 0 {
		return nil, fmt.Errorf("open position for %q: invalid entry", assetMint(asset))
	}

	now := m.now()
	pos := &domain.Position{
		ID:           idhash.ComputePositionID(asset.Mint, now.UnixMilli(), amountSOL),
		Mint:         asset.Mint,
		Symbol:       asset.Symbol,
		EntryPrice:   entryPrice,
		AmountSOL:    amountSOL,
		TokenAmount:  tokenAmount,
		EntryTime:    now,
		TargetPrice:  entryPrice * (1 + m.profitTargetPct/100),
		StopPrice:    entryPrice * (1 - m.stopLossPct/100),
		CurrentPrice: entryPrice,
		Status:       domain.PositionOpen,
	}

	m.mu.Lock()
	m.open[pos.ID] = pos
	m.totalTrades++
	m.mu.Unlock()

	m.logger.Info().Str("mint", pos.Mint).Str("position", pos.ID).
		Float64("entry_price", entryPrice).Float64("amount_sol", amountSOL).
		Float64("target", pos.TargetPrice).Float64("stop", pos.StopPrice).
		Msg("position opened")

	m.recordEvent(ctx, &domain.TradeEvent{
		Type:       domain.TradeEventEntry,
		PositionID: pos.ID,
		Mint:       pos.Mint,
		Symbol:     pos.Symbol,
		Action:     domain.ActionBuy,
		AmountSOL:  amountSOL,
		PriceUSD:   entryPrice,
		TxHash:     txHash,
		Timestamp:  now,
	})

	return pos, nil
}

// Count returns the number of open positions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// ReservedSOL returns the total SOL reserved by open positions.
func (m *Manager) ReservedSOL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, pos := range m.open {
		sum += pos.AmountSOL
	}
	return sum
}

// HasOpen reports whether any open position exists for the mint.
func (m *Manager) HasOpen(mint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range m.open {
		if pos.Mint == mint {
			return true
		}
	}
	return false
}

// OpenPositions returns copies of all open positions.
func (m *Manager) OpenPositions() []*domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Position, 0, len(m.open))
	for _, pos := range m.open {
		cp := *pos
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns aggregate trading counters. DailyTrades is owned by the
// caller and left zero here.
func (m *Manager) Stats() domain.TradingStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.TradingStats{
		TotalTrades:      m.totalTrades,
		SuccessfulTrades: m.successfulTrades,
		TotalPnlPercent:  m.totalPnlPercent,
		OpenPositions:    len(m.open),
	}
}

// RecomputeStats rebuilds the aggregate counters from the position archive.
// The archive is the durable record; in-memory counters only cover the
// current process lifetime.
func (m *Manager) RecomputeStats(ctx context.Context) (domain.TradingStats, error) {
	if m.archive == nil {
		return m.Stats(), nil
	}

	closed, err := m.archive.GetAll(ctx)
	if err != nil {
		return domain.TradingStats{}, fmt.Errorf("recompute stats: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalTrades = len(closed) + len(m.open)
	m.successfulTrades = 0
	m.totalPnlPercent = 0
	for _, pos := range closed {
		if pos.UnrealizedPnl > 0 {
			m.successfulTrades++
		}
		m.totalPnlPercent += pos.UnrealizedPnl
	}
	return domain.TradingStats{
		TotalTrades:      m.totalTrades,
		SuccessfulTrades: m.successfulTrades,
		TotalPnlPercent:  m.totalPnlPercent,
		OpenPositions:    len(m.open),
	}, nil
}

// Tick runs one monitoring pass: refresh prices, recompute unrealized pnl,
// and close positions whose exit predicate fires. Pricing failures skip the
// position with a warning; exit execution failures keep the position open for
// retry on the next tick.
func (m *Manager) Tick(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pos := m.open[id]

		asset, err := m.provider.GetAsset(ctx, pos.Mint)
		if err != nil || asset == nil || asset.PriceUSD <= 0 {
			m.logger.Warn().Str("mint", pos.Mint).Str("position", pos.ID).Err(err).
				Msg("position unpriceable, skipping this tick")
			continue
		}

		pos.CurrentPrice = asset.PriceUSD
		pos.UnrealizedPnl = pos.PnlPercent(asset.PriceUSD)

		reason := m.exitReason(pos)
		if reason == "" {
			continue
		}
		if err := m.closeLocked(ctx, pos, reason); err != nil {
			m.logger.Warn().Str("mint", pos.Mint).Str("position", pos.ID).
				Str("reason", reason).Err(err).
				Msg("exit execution failed, will retry next tick")
		}
	}
}

// exitReason evaluates the exit predicates in fixed priority order: target,
// stop, emergency, extreme profit.
func (m *Manager) exitReason(pos *domain.Position) string {
	switch {
	case pos.CurrentPrice >= pos.TargetPrice:
		return domain.ExitReasonTargetReached
	case pos.CurrentPrice <= pos.StopPrice:
		return domain.ExitReasonStopLoss
	case m.now().Sub(pos.EntryTime) > emergencyMaxAge && pos.UnrealizedPnl < emergencyLossPct:
		return domain.ExitReasonEmergency
	case pos.UnrealizedPnl > extremeProfitPct:
		return domain.ExitReasonExtremeProfit
	}
	return ""
}

// ClosePosition closes an open position with the given reason. Returns
// ErrPositionClosed if the id is not in the open set.
func (m *Manager) ClosePosition(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.open[id]
	if !ok {
		return ErrPositionClosed
	}
	return m.closeLocked(ctx, pos, reason)
}

// CloseAll attempts a best-effort close of every open position. Failures are
// logged and the positions stay open; returns the number closed.
func (m *Manager) CloseAll(ctx context.Context, reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	closed := 0
	for _, id := range ids {
		pos := m.open[id]
		if err := m.closeLocked(ctx, pos, reason); err != nil {
			m.logger.Warn().Str("mint", pos.Mint).Str("position", pos.ID).Err(err).
				Msg("close failed during shutdown")
			continue
		}
		closed++
	}
	return closed
}

// closeLocked executes the full-exit trade and, on success, transitions the
// position to CLOSED, archives it, and records the exit event. Caller holds
// the mutex.
func (m *Manager) closeLocked(ctx context.Context, pos *domain.Position, reason string) error {
	res, err := m.executor.Execute(ctx, execution.Params{
		Mint:            pos.Mint,
		Action:          domain.ActionSell,
		AmountSOL:       pos.AmountSOL,
		TokenAmount:     pos.TokenAmount,
		BaseSlippagePct: exitBaseSlippage,
	}, execution.DefaultStrategy)
	if err != nil {
		return fmt.Errorf("exit trade for %s: %w", pos.Mint, err)
	}
	if !res.Success {
		return fmt.Errorf("exit trade for %s rejected: %s", pos.Mint, res.Err)
	}

	price := res.AvgPrice
	if price <= 0 {
		price = pos.CurrentPrice
	}
	pnl := pos.PnlPercent(price)
	now := m.now()

	pos.Status = domain.PositionClosed
	pos.ClosePrice = price
	pos.ClosedAt = now
	pos.ExitReason = reason
	pos.CurrentPrice = price
	pos.UnrealizedPnl = pnl
	delete(m.open, pos.ID)

	if pnl > 0 {
		m.successfulTrades++
	}
	m.totalPnlPercent += pnl

	m.logger.Info().Str("mint", pos.Mint).Str("position", pos.ID).
		Str("reason", reason).Float64("close_price", price).Float64("pnl_pct", pnl).
		Msg("position closed")

	txHash := ""
	if len(res.TxHashes) > 0 {
		txHash = res.TxHashes[len(res.TxHashes)-1]
	}
	m.recordEvent(ctx, &domain.TradeEvent{
		Type:       domain.TradeEventExit,
		PositionID: pos.ID,
		Mint:       pos.Mint,
		Symbol:     pos.Symbol,
		Action:     domain.ActionSell,
		AmountSOL:  res.AmountInSOL,
		PriceUSD:   price,
		TxHash:     txHash,
		Reason:     reason,
		PnlPercent: pnl,
		Timestamp:  now,
	})
	m.archivePosition(ctx, pos)

	return nil
}

// recordEvent writes to the trade log. Store failures never affect trading
// decisions.
func (m *Manager) recordEvent(ctx context.Context, e *domain.TradeEvent) {
	if m.events == nil {
		return
	}
	e.EventID = idhash.ComputeEventID(e.PositionID, e.Type, e.Timestamp.UnixMilli())
	if err := m.events.Record(ctx, e); err != nil {
		m.logger.Warn().Str("event", e.EventID).Err(err).Msg("trade log write failed")
	}
}

func (m *Manager) archivePosition(ctx context.Context, pos *domain.Position) {
	if m.archive == nil {
		return
	}
	cp := *pos
	if err := m.archive.Insert(ctx, &cp); err != nil {
		m.logger.Warn().Str("position", pos.ID).Err(err).Msg("position archive write failed")
	}
}

func assetMint(a *domain.Asset) string {
	if a == nil {
		return ""
	}
	return a.Mint
}
