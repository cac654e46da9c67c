// Package stub provides a deterministic in-memory feed for tests and
// storage-free runs.
package stub

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-autotrader/internal/domain"
	"solana-autotrader/internal/feed"
)

// Feed is an in-memory feed.Provider. Assets are served as stored; Fail
// switches every call to the error path.
type Feed struct {
	mu     sync.RWMutex
	assets map[string]*domain.Asset
	err    error
}

// NewFeed creates an empty stub feed.
func NewFeed() *Feed {
	return &Feed{assets: make(map[string]*domain.Asset)}
}

// Put inserts or replaces an asset.
func (f *Feed) Put(a *domain.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.assets[a.Mint] = &cp
}

// Remove deletes an asset, simulating a delisting.
func (f *Feed) Remove(mint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, mint)
}

// Fail makes all subsequent calls return err (nil restores normal behavior).
func (f *Feed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// ListAssets returns matching assets sorted by 24h volume descending.
func (f *Feed) ListAssets(_ context.Context, q feed.Query) ([]*domain.Asset, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.err != nil {
		return nil, f.err
	}

	now := time.Now()
	var out []*domain.Asset
	for _, a := range f.assets {
		if q.MinLiquidityUSD > 0 && a.LiquidityUSD < q.MinLiquidityUSD {
			continue
		}
		if q.MinVolume24hUSD > 0 && a.Volume24hUSD < q.MinVolume24hUSD {
			continue
		}
		if q.MaxAge > 0 && a.Age(now) > q.MaxAge {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Volume24hUSD > out[j].Volume24hUSD
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetAsset returns the stored asset or nil when unknown.
func (f *Feed) GetAsset(_ context.Context, mint string) (*domain.Asset, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.assets[mint]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

var _ feed.Provider = (*Feed)(nil)
