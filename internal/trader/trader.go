// Package trader is the control loop: it owns the discovery and monitoring
// timers, enforces the global risk limits, and reacts to new-token events.
package trader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/chain"
	"solana-autotrader/internal/config"
	"solana-autotrader/internal/decision"
	"solana-autotrader/internal/discovery"
	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/execution"
	"solana-autotrader/internal/feed"
	"solana-autotrader/internal/market"
	"solana-autotrader/internal/observability"
	"solana-autotrader/internal/position"
	"solana-autotrader/internal/storage"
)

// scoreBatchSize bounds how many discovered candidates get scored per cycle.
// Quotes are the expensive part of scoring; the discovery ranking already
// put the most promising candidates first.
const scoreBatchSize = 8

// Options configures a Trader.
type Options struct {
	Config config.Config

	Provider  feed.Provider
	Snapshots *market.SnapshotProvider
	Executor  chain.Executor
	Engine    *discovery.Engine
	Scorer    *decision.Scorer
	Optimizer position.TradeExecutor
	Positions *position.Manager

	// Strategies defaults to discovery.DefaultStrategies when nil.
	Strategies []domain.DiscoveryStrategy

	// NewAssets is the optional new-token event stream; nil disables the
	// listener path.
	NewAssets <-chan *domain.Asset

	// SnapshotHistory receives a fire-and-forget copy of each snapshot used
	// by a discovery cycle. May be nil.
	SnapshotHistory storage.SnapshotStore

	Logger zerolog.Logger
	Now    func() time.Time
}

// Trader runs the autonomous trading loop. A single mutex serializes
// discovery cycles, monitoring ticks and new-token handling: a cycle and a
// tick can never interleave their mutations of the position set or the
// daily counters.
type Trader struct {
	cfg       config.TradingConfig
	provider  feed.Provider
	snapshots *market.SnapshotProvider
	executor  chain.Executor
	engine    *discovery.Engine
	scorer    *decision.Scorer
	optimizer position.TradeExecutor
	positions *position.Manager

	strategies      []domain.DiscoveryStrategy
	newAssets       <-chan *domain.Asset
	snapshotHistory storage.SnapshotStore
	blacklist       map[string]struct{}

	logger zerolog.Logger
	now    func() time.Time

	mu           sync.Mutex
	dailyTrades  int
	lastResetDay time.Time

	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a trader.
func New(opts Options) *Trader {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = discovery.DefaultStrategies()
	}
	bl := make(map[string]struct{}, len(opts.Config.Feed.BlacklistTokens))
	for _, mint := range opts.Config.Feed.BlacklistTokens {
		bl[mint] = struct{}{}
	}
	return &Trader{
		cfg:             opts.Config.Trading,
		provider:        opts.Provider,
		snapshots:       opts.Snapshots,
		executor:        opts.Executor,
		engine:          opts.Engine,
		scorer:          opts.Scorer,
		optimizer:       opts.Optimizer,
		positions:       opts.Positions,
		strategies:      opts.Strategies,
		newAssets:       opts.NewAssets,
		snapshotHistory: opts.SnapshotHistory,
		blacklist:       bl,
		logger:          opts.Logger,
		now:             opts.Now,
		lastResetDay:    dayOf(opts.Now()),
		stopCh:          make(chan struct{}),
	}
}

// Stopped reports whether Stop has been requested. Wired into the execution
// optimizer so multi-split executions abort between sub-orders.
func (t *Trader) Stopped() bool {
	return t.stopped.Load()
}

// Start launches the timer loop. Returns immediately; the loop runs until
// Stop or context cancellation.
func (t *Trader) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.run(ctx)
	t.logger.Info().
		Dur("discovery_interval", t.cfg.DiscoveryInterval).
		Dur("monitor_interval", t.cfg.MonitorInterval).
		Bool("listener", t.newAssets != nil).
		Msg("trader started")
}

// Stop halts the timers and attempts a best-effort close of all open
// positions. Idempotent.
func (t *Trader) Stop(ctx context.Context) {
	if t.stopped.Swap(true) {
		return
	}
	close(t.stopCh)
	t.wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	closed := t.positions.CloseAll(ctx, domain.ExitReasonShutdown)
	t.logger.Info().Int("closed", closed).Int("remaining", t.positions.Count()).
		Msg("trader stopped")
}

func (t *Trader) run(ctx context.Context) {
	defer t.wg.Done()

	discoveryTicker := time.NewTicker(t.cfg.DiscoveryInterval)
	defer discoveryTicker.Stop()
	monitorTicker := time.NewTicker(t.cfg.MonitorInterval)
	defer monitorTicker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-discoveryTicker.C:
			t.runDiscovery(ctx)
		case <-monitorTicker.C:
			t.MonitorTick(ctx)
		case asset, ok := <-t.newAssets:
			if !ok {
				t.newAssets = nil
				continue
			}
			t.handleNewAsset(ctx, asset)
		}
	}
}

func (t *Trader) runDiscovery(ctx context.Context) {
	start := t.now()
	err := t.DiscoveryCycle(ctx)
	elapsed := t.now().Sub(start).Seconds()

	switch {
	case err == nil:
		observability.RecordDiscoveryCycle("traded", elapsed)
	case IsCapacityError(err):
		t.logger.Info().Err(err).Msg("discovery cycle skipped")
		observability.RecordDiscoveryCycle("capacity", elapsed)
	default:
		t.logger.Warn().Err(err).Msg("discovery cycle found nothing to trade")
		observability.RecordDiscoveryCycle("empty", elapsed)
	}
}

// DiscoveryCycle runs one full discovery pass: caps, balance, discovery,
// scoring, execution, position creation. Capacity errors mark a deliberate
// no-op (see IsCapacityError).
func (t *Trader) DiscoveryCycle(ctx context.Context) error {
	if t.stopped.Load() {
		return ErrStopped
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyCountersLocked()
	if err := t.checkCapsLocked(); err != nil {
		return err
	}

	available, err := t.availableAmountLocked(ctx)
	if err != nil {
		return err
	}

	snapshot := t.snapshots.GetSnapshot(ctx, false)
	t.storeSnapshot(ctx, snapshot)

	candidates := t.engine.Discover(ctx, t.strategies, available, scoreBatchSize, snapshot)
	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	best := t.pickBest(ctx, candidates, available, snapshot)
	if best == nil {
		return ErrNoExecutable
	}

	return t.enterPositionLocked(ctx, best, snapshot)
}

// MonitorTick runs one position monitoring pass.
func (t *Trader) MonitorTick(ctx context.Context) {
	if t.stopped.Load() {
		return
	}

	start := t.now()
	t.mu.Lock()
	t.positions.Tick(ctx)
	open := t.positions.Count()
	daily := t.dailyTrades
	t.mu.Unlock()

	observability.RecordMonitorTick(t.now().Sub(start).Seconds())
	observability.UpdatePositionGauges(open, daily)
}

// handleNewAsset runs the abbreviated single-asset pipeline for a new-token
// event, at the minimum trade size and under the same caps as the periodic
// path.
func (t *Trader) handleNewAsset(ctx context.Context, asset *domain.Asset) {
	if asset == nil || t.stopped.Load() {
		return
	}
	observability.DefaultMetrics.NewTokenEvents.Inc()

	if err := t.TradeNewAsset(ctx, asset); err != nil {
		t.logger.Debug().Err(err).Str("mint", asset.Mint).Msg("new-token event not traded")
	}
}

// TradeNewAsset scores one event-sourced asset and enters a minimum-size
// position when executable.
func (t *Trader) TradeNewAsset(ctx context.Context, asset *domain.Asset) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, banned := t.blacklist[asset.Mint]; banned {
		return ErrBlacklisted
	}
	if t.positions.HasOpen(asset.Mint) {
		return ErrAlreadyHolding
	}

	t.resetDailyCountersLocked()
	if err := t.checkCapsLocked(); err != nil {
		return err
	}
	if _, err := t.availableAmountLocked(ctx); err != nil {
		return err
	}

	// Event payloads carry identity only; the feed has the stats if the
	// asset is already indexed.
	if full, err := t.provider.GetAsset(ctx, asset.Mint); err == nil && full != nil {
		asset = full
	}

	snapshot := t.snapshots.GetSnapshot(ctx, false)
	analysis := t.scorer.Score(ctx, asset, t.cfg.MinTradeAmountSOL, domain.ActionBuy, snapshot)
	observability.RecordScore(analysis.Decision.Executable, analysis.Decision.Confidence)
	if !analysis.Decision.Executable {
		return ErrNoExecutable
	}

	return t.enterPositionLocked(ctx, analysis, snapshot)
}

// resetDailyCountersLocked resets the daily trade counter at local-day
// rollover.
func (t *Trader) resetDailyCountersLocked() {
	today := dayOf(t.now())
	if today.Equal(t.lastResetDay) {
		return
	}
	t.logger.Info().Int("daily_trades", t.dailyTrades).Time("day", today).
		Msg("daily counters reset")
	t.dailyTrades = 0
	t.lastResetDay = today
}

func (t *Trader) checkCapsLocked() error {
	if t.dailyTrades >= t.cfg.MaxDailyTrades {
		return fmt.Errorf("%w: %d today", ErrDailyCapReached, t.dailyTrades)
	}
	if t.positions.Count() >= t.cfg.MaxConcurrentTrades {
		return fmt.Errorf("%w: %d open", ErrConcurrencyCapReached, t.positions.Count())
	}
	return nil
}

// availableAmountLocked computes min(balance - reserved, maxTradeAmount),
// clamped at zero. Below the minimum trade size the cycle is a no-op.
func (t *Trader) availableAmountLocked(ctx context.Context) (float64, error) {
	balance, err := t.executor.WalletBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("wallet balance: %w", err)
	}

	available := balance - t.positions.ReservedSOL()
	if available < 0 {
		available = 0
	}
	if available > t.cfg.MaxTradeAmountSOL {
		available = t.cfg.MaxTradeAmountSOL
	}
	if available < t.cfg.MinTradeAmountSOL {
		return 0, fmt.Errorf("%w: %.4f SOL available", ErrInsufficientBalance, available)
	}
	return available, nil
}

// pickBest scores the candidate batch and returns the highest-confidence
// executable analysis, or nil.
func (t *Trader) pickBest(ctx context.Context, candidates []*domain.CandidateAsset, amountSOL float64, snapshot *domain.MarketSnapshot) *decision.TradeAnalysis {
	var best *decision.TradeAnalysis
	for _, c := range candidates {
		if t.positions.HasOpen(c.Asset.Mint) {
			continue
		}

		analysis := t.scorer.Score(ctx, &c.Asset, amountSOL, domain.ActionBuy, snapshot)
		observability.RecordScore(analysis.Decision.Executable, analysis.Decision.Confidence)
		if !analysis.Decision.Executable {
			continue
		}
		if best == nil || analysis.Decision.Confidence > best.Decision.Confidence {
			best = analysis
		}
	}
	return best
}

// enterPositionLocked executes the entry trade and opens the position.
func (t *Trader) enterPositionLocked(ctx context.Context, analysis *decision.TradeAnalysis, snapshot *domain.MarketSnapshot) error {
	amount := analysis.Decision.RecommendedAmountSOL
	if amount < t.cfg.MinTradeAmountSOL {
		amount = t.cfg.MinTradeAmountSOL
	}

	params := execution.Params{
		Mint:            analysis.Asset.Mint,
		Action:          domain.ActionBuy,
		AmountSOL:       amount,
		BaseSlippagePct: 1.0,
		PartialFill:     true,
		MEVProtection:   t.cfg.MEVProtection,
	}

	conditions := execution.MarketConditions{
		PriceImpactPct:  analysis.Indicators.PriceImpactPct,
		VolatilityIndex: snapshot.VolatilityIndex,
	}
	if status, err := t.executor.NetworkStatus(ctx); err == nil && status != nil {
		conditions.NetworkCongestionPct = status.CongestionPct
	}

	strategy := execution.SelectStrategy(execution.DefaultTable(), params, conditions)
	t.logger.Info().Str("mint", params.Mint).Float64("amount_sol", amount).
		Float64("confidence", analysis.Decision.Confidence).Str("strategy", strategy.Name).
		Msg("executing entry")

	res, err := t.optimizer.Execute(ctx, params, strategy)
	if err != nil {
		observability.RecordTrade("buy", false)
		return fmt.Errorf("entry execution: %w", err)
	}
	if !res.Success {
		observability.RecordTrade("buy", false)
		return fmt.Errorf("entry execution for %s rejected: %s", params.Mint, res.Err)
	}
	observability.RecordTrade("buy", true)

	entryPrice := res.AvgPrice
	if entryPrice <= 0 {
		entryPrice = analysis.Asset.PriceUSD
	}
	txHash := ""
	if len(res.TxHashes) > 0 {
		txHash = res.TxHashes[len(res.TxHashes)-1]
	}

	if _, err := t.positions.Open(ctx, &analysis.Asset, entryPrice, res.AmountInSOL, res.AmountOut, txHash); err != nil {
		return fmt.Errorf("open position: %w", err)
	}

	t.dailyTrades++
	observability.UpdatePositionGauges(t.positions.Count(), t.dailyTrades)
	return nil
}

// storeSnapshot writes the snapshot to the history store, fire-and-forget.
func (t *Trader) storeSnapshot(ctx context.Context, snapshot *domain.MarketSnapshot) {
	if t.snapshotHistory == nil {
		return
	}
	if err := t.snapshotHistory.Insert(ctx, snapshot); err != nil {
		observability.RecordStoreWriteError("snapshots")
		t.logger.Warn().Err(err).Msg("snapshot history write failed")
	}
}

// Stats returns the aggregate counters including the daily trade count.
func (t *Trader) Stats() domain.TradingStats {
	t.mu.Lock()
	daily := t.dailyTrades
	t.mu.Unlock()

	stats := t.positions.Stats()
	stats.DailyTrades = daily
	return stats
}

// dayOf truncates to the local calendar day. The daily cap follows the
// operator's wall clock, not UTC.
func dayOf(ts time.Time) time.Time {
	y, m, d := ts.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
