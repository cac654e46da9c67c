// Package feed defines the market data feed the trading core consumes.
// Implementations are replaceable collaborators; feed failures surface as
// errors that the core degrades on, never as panics into the control flow.
package feed

import (
	"context"
	"time"

	"solana-autotrader/internal/domain"
)

// Query filters a ListAssets call. Zero values disable a constraint.
type Query struct {
	MinLiquidityUSD float64
	MinVolume24hUSD float64
	MaxAge          time.Duration
	Limit           int
}

// Provider serves discovered assets from an external market feed.
type Provider interface {
	// ListAssets returns assets matching the query, best-ranked first.
	ListAssets(ctx context.Context, q Query) ([]*domain.Asset, error)

	// GetAsset returns the current view of a single asset by mint address.
	// Returns nil, nil when the asset is unknown to the feed (delisted).
	GetAsset(ctx context.Context, mint string) (*domain.Asset, error)
}
