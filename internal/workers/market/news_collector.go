package market

import (
	"context"
	"time"

	"pulsedesk/internal/domain/news"
	"pulsedesk/internal/store"
	"pulsedesk/internal/workers"
)

// NewsFetcher retrieves the latest headlines from the configured feed.
type NewsFetcher interface {
	FetchNews(ctx context.Context) ([]news.Item, error)
}

// NewsCollector polls the news feed and replaces the cached headline
// list wholesale. An empty fetch result is ignored so a flaky feed
// never wipes previously collected headlines.
type NewsCollector struct {
	*workers.BaseWorker
	fetcher NewsFetcher
	store   *store.Store
}

// NewNewsCollector creates a new news collector worker
func NewNewsCollector(fetcher NewsFetcher, st *store.Store, interval time.Duration) *NewsCollector {
	return &NewsCollector{
		BaseWorker: workers.NewBaseWorker("news_collector", interval, true),
		fetcher:    fetcher,
		store:      st,
	}
}

// Run executes one iteration of news collection
func (nc *NewsCollector) Run(ctx context.Context) error {
	nc.Log().Debug("News collector: starting iteration")

	items, err := nc.fetcher.FetchNews(ctx)
	if err != nil {
		nc.Log().Error("Failed to fetch news", "error", err)
		return err
	}

	if len(items) == 0 {
		nc.Log().Warn("News feed returned no items, keeping previous headlines")
		return nil
	}

	nc.store.SetNews(items)
	nc.Log().Info("News collection complete", "headlines", len(items))
	return nil
}
