package market

import (
	"context"
	"time"

	"pulsedesk/internal/domain/market"
	"pulsedesk/internal/store"
	"pulsedesk/internal/workers"
)

// PriceFetcher retrieves the current snapshot for the tracked assets.
type PriceFetcher interface {
	FetchPrices(ctx context.Context) (market.Snapshot, error)
}

// PriceCollector polls current prices for the tracked assets and
// publishes the snapshot to the store. A failed poll leaves the
// previous snapshot in place.
type PriceCollector struct {
	*workers.BaseWorker
	fetcher PriceFetcher
	store   *store.Store
}

// NewPriceCollector creates a new price collector worker
func NewPriceCollector(fetcher PriceFetcher, st *store.Store, interval time.Duration) *PriceCollector {
	return &PriceCollector{
		BaseWorker: workers.NewBaseWorker("price_collector", interval, true),
		fetcher:    fetcher,
		store:      st,
	}
}

// Run executes one iteration of price collection
func (pc *PriceCollector) Run(ctx context.Context) error {
	pc.Log().Debug("Price collector: starting iteration")

	snapshot, err := pc.fetcher.FetchPrices(ctx)
	if err != nil {
		pc.Log().Error("Failed to fetch prices", "error", err)
		return err
	}

	pc.store.SetPrices(snapshot)
	pc.Log().Info("Price collection complete", "assets", len(snapshot))
	return nil
}
