// Package main runs the autonomous trader: periodic discovery, position
// monitoring and the optional new-token listener, over either in-memory or
// PostgreSQL + ClickHouse storage.
//
// The market feed and chain executor default to the in-memory stubs; a live
// deployment plugs real implementations of feed.Provider and chain.Executor
// into the same wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	chainstub "solana-autotrader/internal/chain/stub"
	"solana-autotrader/internal/config"
	"solana-autotrader/internal/decision"
	"solana-autotrader/internal/discovery"
	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/execution"
	"solana-autotrader/internal/feed"
	feedstub "solana-autotrader/internal/feed/stub"
	"solana-autotrader/internal/market"
	"solana-autotrader/internal/observability"
	"solana-autotrader/internal/position"
	"solana-autotrader/internal/storage"
	chstore "solana-autotrader/internal/storage/clickhouse"
	"solana-autotrader/internal/storage/memory"
	pgstore "solana-autotrader/internal/storage/postgres"
	"solana-autotrader/internal/trader"
)

// tradeStores holds the persistence backends the trader writes to.
type tradeStores struct {
	events    storage.TradeEventStore
	archive   storage.PositionStore
	snapshots storage.SnapshotStore
}

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	useMemory := flag.Bool("memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides config)")
	balance := flag.Float64("balance", 1.0, "Starting paper wallet balance in SOL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickHouseDSN = *clickhouseDSN
	}

	logger := newLogger(cfg.Logging)

	if !cfg.Storage.UseMemory && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickHouseDSN == "") {
		logger.Fatal().Msg("postgres and clickhouse DSNs are required (use -memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("store setup failed")
	}
	defer cleanup()

	// Collaborators. The stubs trade on paper at scripted prices.
	marketFeed := feedstub.NewFeed()
	executor := chainstub.NewExecutor(*balance)

	snapshots := market.NewSnapshotProvider(market.Options{
		Feed:   marketFeed,
		Logger: logger.With().Str("component", "market").Logger(),
	})
	engine := discovery.NewEngine(marketFeed, cfg.Feed.BlacklistTokens,
		logger.With().Str("component", "discovery").Logger())
	scorer := decision.NewScorer(decision.Options{
		Executor:      executor,
		MinConfidence: cfg.Trading.MinConfidence,
		Logger:        logger.With().Str("component", "decision").Logger(),
	})

	// The optimizer polls the trader's stop flag between split sub-orders;
	// the trader does not exist yet, so go through a late-bound pointer.
	var tr *trader.Trader
	optimizer := execution.NewOptimizer(executor,
		func() bool { return tr != nil && tr.Stopped() },
		logger.With().Str("component", "execution").Logger())

	positions := position.NewManager(position.Options{
		Provider:        marketFeed,
		Executor:        optimizer,
		Events:          stores.events,
		Archive:         stores.archive,
		ProfitTargetPct: cfg.Trading.ProfitTargetPercent,
		StopLossPct:     cfg.Trading.StopLossPercent,
		Logger:          logger.With().Str("component", "position").Logger(),
	})
	if _, err := positions.RecomputeStats(ctx); err != nil {
		logger.Warn().Err(err).Msg("stats recomputation from archive failed")
	}

	var newAssets <-chan *domain.Asset
	if cfg.Feed.EnableNewTokenListener {
		listener, err := feed.NewListener(ctx, cfg.Feed.NewTokenListenerURL, nil,
			logger.With().Str("component", "listener").Logger())
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.Feed.NewTokenListenerURL).
				Msg("new-token listener connection failed")
		}
		defer listener.Close()
		newAssets = listener.Assets()
	}

	tr = trader.New(trader.Options{
		Config:          *cfg,
		Provider:        marketFeed,
		Snapshots:       snapshots,
		Executor:        executor,
		Engine:          engine,
		Scorer:          scorer,
		Optimizer:       optimizer,
		Positions:       positions,
		NewAssets:       newAssets,
		SnapshotHistory: stores.snapshots,
		Logger:          logger.With().Str("component", "trader").Logger(),
	})

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	tr.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	// Second signal forces exit; shutdown also has a hard deadline.
	done := make(chan struct{})
	go func() {
		tr.Stop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case sig := <-sigCh:
		logger.Error().Str("signal", sig.String()).Msg("forced shutdown")
		os.Exit(1)
	case <-time.After(30 * time.Second):
		logger.Error().Msg("graceful shutdown timed out")
		os.Exit(1)
	}

	stats := tr.Stats()
	logger.Info().
		Int("total_trades", stats.TotalTrades).
		Int("successful_trades", stats.SuccessfulTrades).
		Float64("total_pnl_percent", stats.TotalPnlPercent).
		Msg("shutdown complete")
}

// newLogger builds the root logger from the logging config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out = os.Stderr
	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// createStores builds the persistence backends and their cleanup function.
func createStores(ctx context.Context, cfg config.StorageConfig) (*tradeStores, func(), error) {
	if cfg.UseMemory {
		stores := &tradeStores{
			events:    memory.NewTradeEventStore(),
			archive:   memory.NewPositionStore(),
			snapshots: memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pgstore.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres schema: %w", err)
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := chstore.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	stores := &tradeStores{
		events:    pgstore.NewTradeEventStore(pool),
		archive:   pgstore.NewPositionStore(pool),
		snapshots: chstore.NewSnapshotStore(conn),
	}
	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// serveMetrics exposes the Prometheus endpoint.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
