// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trader.
type Metrics struct {
	// Cycle metrics
	DiscoveryCycles  *prometheus.CounterVec
	MonitorTicks     prometheus.Counter
	CycleDuration    *prometheus.HistogramVec
	NewTokenEvents   prometheus.Counter
	CandidatesScored prometheus.Counter

	// Scoring metrics
	ScoreOutcomes   *prometheus.CounterVec
	ConfidenceScore prometheus.Histogram

	// Trading metrics
	TradesExecuted  *prometheus.CounterVec
	TradesFailed    *prometheus.CounterVec
	SplitsPlaced    prometheus.Counter
	OpenPositions   prometheus.Gauge
	DailyTrades     prometheus.Gauge
	PositionsClosed *prometheus.CounterVec
	RealizedPnl     prometheus.Histogram

	// Feed metrics
	FeedErrors        prometheus.Counter
	SnapshotFallbacks prometheus.Counter

	// Storage metrics
	StoreWriteErrors *prometheus.CounterVec

	// Health metrics
	LastDiscoveryRun prometheus.Gauge
	LastMonitorRun   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_autotrader"
	}

	return &Metrics{
		// Cycle metrics
		DiscoveryCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trader",
			Name:      "discovery_cycles_total",
			Help:      "Total number of discovery cycles by outcome",
		}, []string{"outcome"}),
		MonitorTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trader",
			Name:      "monitor_ticks_total",
			Help:      "Total number of position monitoring ticks",
		}),
		CycleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trader",
			Name:      "cycle_duration_seconds",
			Help:      "Cycle execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cycle"}),
		NewTokenEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trader",
			Name:      "new_token_events_total",
			Help:      "Total number of new-token events consumed",
		}),
		CandidatesScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "candidates_scored_total",
			Help:      "Total number of candidates scored",
		}),

		// Scoring metrics
		ScoreOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "outcomes_total",
			Help:      "Total number of scoring outcomes by verdict",
		}, []string{"verdict"}),
		ConfidenceScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "confidence",
			Help:      "Confidence score distribution",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		// Trading metrics
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "trades_total",
			Help:      "Total number of executed trades by action",
		}, []string{"action"}),
		TradesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "trades_failed_total",
			Help:      "Total number of failed trades by action",
		}, []string{"action"}),
		SplitsPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "splits_placed_total",
			Help:      "Total number of split sub-orders placed",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "open",
			Help:      "Current number of open positions",
		}),
		DailyTrades: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trader",
			Name:      "daily_trades",
			Help:      "Trades executed since the last daily reset",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "closed_total",
			Help:      "Total number of closed positions by exit reason",
		}, []string{"reason"}),
		RealizedPnl: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "realized_pnl_percent",
			Help:      "Realized P&L percent distribution",
			Buckets:   []float64{-100, -50, -20, -10, 0, 10, 20, 50, 100, 200, 500},
		}),

		// Feed metrics
		FeedErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "errors_total",
			Help:      "Total number of feed provider errors",
		}),
		SnapshotFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "snapshot_fallbacks_total",
			Help:      "Total number of snapshots built from fallback constants",
		}),

		// Storage metrics
		StoreWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_errors_total",
			Help:      "Total number of fire-and-forget store write failures",
		}, []string{"store"}),

		// Health metrics
		LastDiscoveryRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_discovery_run_timestamp",
			Help:      "Unix timestamp of the last completed discovery cycle",
		}),
		LastMonitorRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_monitor_run_timestamp",
			Help:      "Unix timestamp of the last completed monitoring tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDiscoveryCycle records a completed discovery cycle.
func RecordDiscoveryCycle(outcome string, durationSeconds float64) {
	DefaultMetrics.DiscoveryCycles.WithLabelValues(outcome).Inc()
	DefaultMetrics.CycleDuration.WithLabelValues("discovery").Observe(durationSeconds)
}

// RecordMonitorTick records a completed monitoring tick.
func RecordMonitorTick(durationSeconds float64) {
	DefaultMetrics.MonitorTicks.Inc()
	DefaultMetrics.CycleDuration.WithLabelValues("monitor").Observe(durationSeconds)
}

// RecordScore records a scoring outcome.
func RecordScore(executable bool, confidence float64) {
	DefaultMetrics.CandidatesScored.Inc()
	DefaultMetrics.ConfidenceScore.Observe(confidence)
	if executable {
		DefaultMetrics.ScoreOutcomes.WithLabelValues("executable").Inc()
	} else {
		DefaultMetrics.ScoreOutcomes.WithLabelValues("rejected").Inc()
	}
}

// RecordTrade records an executed or failed trade.
func RecordTrade(action string, success bool) {
	if success {
		DefaultMetrics.TradesExecuted.WithLabelValues(action).Inc()
	} else {
		DefaultMetrics.TradesFailed.WithLabelValues(action).Inc()
	}
}

// RecordPositionClosed records a position close with its realized pnl.
func RecordPositionClosed(reason string, pnlPercent float64) {
	DefaultMetrics.PositionsClosed.WithLabelValues(reason).Inc()
	DefaultMetrics.RealizedPnl.Observe(pnlPercent)
}

// UpdatePositionGauges updates the open-position and daily-trade gauges.
func UpdatePositionGauges(open, daily int) {
	DefaultMetrics.OpenPositions.Set(float64(open))
	DefaultMetrics.DailyTrades.Set(float64(daily))
}

// RecordStoreWriteError records a fire-and-forget store write failure.
func RecordStoreWriteError(store string) {
	DefaultMetrics.StoreWriteErrors.WithLabelValues(store).Inc()
}
