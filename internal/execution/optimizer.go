package execution

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"solana-autotrader/internal/chain"
)

// Result aggregates the outcome of one optimized execution, across all
// sub-orders for a split plan.
type Result struct {
	Success      bool
	Partial      bool // some but not all splits filled (partialFill mode)
	AmountInSOL  float64
	AmountOut    float64
	AvgPrice     float64 // volume-weighted average execution price, USD
	SplitsPlaced int
	SplitsFilled int
	TxHashes     []string
	Err          string
}

// Optimizer executes trades through the chain executor according to a
// selected strategy. Split plans run strictly sequentially with an explicit
// delay between sub-orders; parallel fan-out would defeat the MEV-avoidance
// rationale for the delays.
type Optimizer struct {
	executor chain.Executor
	logger   zerolog.Logger

	// stopped is polled before every split so Stop() can interrupt a
	// multi-split execution between sub-orders.
	stopped func() bool

	sleep    func(ctx context.Context, d time.Duration)
	mevDelay func() time.Duration
}

// NewOptimizer creates an optimizer. stopped may be nil.
func NewOptimizer(executor chain.Executor, stopped func() bool, logger zerolog.Logger) *Optimizer {
	if stopped == nil {
		stopped = func() bool { return false }
	}
	return &Optimizer{
		executor: executor,
		logger:   logger,
		stopped:  stopped,
		sleep:    ctxSleep,
		mevDelay: func() time.Duration {
			return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
		},
	}
}

// Execute places the trade under the given strategy and returns the
// aggregated result. Transport-level failures surface in Result.Err; Execute
// itself only errors on context cancellation.
func (o *Optimizer) Execute(ctx context.Context, p Params, strategy Strategy) (*Result, error) {
	if strategy.SplitTrades && p.AmountSOL > SplitThresholdSOL {
		return o.executeSplit(ctx, p, strategy)
	}
	return o.executeSingle(ctx, p, strategy)
}

func (o *Optimizer) executeSingle(ctx context.Context, p Params, strategy Strategy) (*Result, error) {
	if p.MEVProtection {
		delay := o.mevDelay()
		o.logger.Debug().Dur("delay", delay).Msg("mev protection delay before submission")
		o.sleep(ctx, delay)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res, err := o.submit(ctx, p, strategy, p.AmountSOL, p.TokenAmount)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return &Result{Success: false, SplitsPlaced: 1, Err: res.Err}, nil
	}
	return &Result{
		Success:      true,
		AmountInSOL:  res.AmountInSOL,
		AmountOut:    res.AmountOut,
		AvgPrice:     res.ExecutionPrice,
		SplitsPlaced: 1,
		SplitsFilled: 1,
		TxHashes:     []string{res.TxHash},
	}, nil
}

// executeSplit divides the order into equal sub-orders and places them
// sequentially with the strategy's inter-split delay.
func (o *Optimizer) executeSplit(ctx context.Context, p Params, strategy Strategy) (*Result, error) {
	splits := int(math.Ceil(p.AmountSOL / SplitChunkSOL))
	if strategy.MaxSplits > 0 && splits > strategy.MaxSplits {
		splits = strategy.MaxSplits
	}
	if splits < 1 {
		splits = 1
	}

	subAmount := p.AmountSOL / float64(splits)
	subTokens := p.TokenAmount / float64(splits)

	result := &Result{SplitsPlaced: splits}
	var weightedPrice float64

	for i := 0; i < splits; i++ {
		if o.stopped() {
			o.logger.Info().Int("filled", result.SplitsFilled).Int("planned", splits).
				Msg("stop requested, aborting remaining splits")
			break
		}
		if i > 0 && strategy.DelayBetweenSplits > 0 {
			o.sleep(ctx, strategy.DelayBetweenSplits)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := o.submit(ctx, p, strategy, subAmount, subTokens)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			o.logger.Warn().Str("mint", p.Mint).Int("split", i+1).Str("cause", res.Err).
				Msg("split execution failed")
			result.Err = res.Err
			if !p.PartialFill {
				return &Result{Success: false, SplitsPlaced: splits, SplitsFilled: result.SplitsFilled, Err: res.Err}, nil
			}
			break
		}

		result.SplitsFilled++
		result.AmountInSOL += res.AmountInSOL
		result.AmountOut += res.AmountOut
		weightedPrice += res.AmountInSOL * res.ExecutionPrice
		result.TxHashes = append(result.TxHashes, res.TxHash)
	}

	if result.SplitsFilled == 0 {
		result.Success = false
		if result.Err == "" {
			result.Err = "no splits filled"
		}
		return result, nil
	}

	if result.AmountInSOL > 0 {
		result.AvgPrice = weightedPrice / result.AmountInSOL
	}
	result.Success = true
	result.Partial = result.SplitsFilled < splits
	return result, nil
}

// submit places one order with the strategy's slippage and fee multipliers
// applied.
func (o *Optimizer) submit(ctx context.Context, p Params, strategy Strategy, amountSOL, tokenAmount float64) (*chain.TradeResult, error) {
	maxFee := 0.0
	if status, err := o.executor.NetworkStatus(ctx); err == nil && status != nil {
		maxFee = status.PriorityFeeSOL * strategy.GasMultiplier
	}

	return o.executor.ExecuteTrade(ctx, chain.TradeParams{
		Mint:        p.Mint,
		Action:      p.Action,
		AmountSOL:   amountSOL,
		TokenAmount: tokenAmount,
		SlippagePct: p.BaseSlippagePct * strategy.SlippageMultiplier,
		MaxFeeSOL:   maxFee,
	})
}

// ctxSleep waits for the duration or context cancellation, whichever first.
func ctxSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
