package market

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"pulsedesk/internal/analyzer"
	"pulsedesk/internal/store"
	"pulsedesk/internal/workers"
)

// AnalysisHeartbeat periodically feeds the freshest market context to
// the analysis service and publishes an idle status so clients can tell
// a ready analyzer from a starved one. It never triggers an analysis
// by itself, analyses only run on explicit selection requests.
type AnalysisHeartbeat struct {
	*workers.BaseWorker
	service *analyzer.Service
	store   *store.Store
}

// NewAnalysisHeartbeat creates a new heartbeat worker
func NewAnalysisHeartbeat(service *analyzer.Service, st *store.Store, interval time.Duration) *AnalysisHeartbeat {
	return &AnalysisHeartbeat{
		BaseWorker: workers.NewBaseWorker("analysis_heartbeat", interval, true),
		service:    service,
		store:      st,
	}
}

// Run executes one heartbeat iteration
func (hb *AnalysisHeartbeat) Run(ctx context.Context) error {
	prices := hb.store.Prices()
	items := hb.store.News()
	hb.service.ObserveMarket(prices, items)

	if !hb.service.HasMarketData() {
		hb.service.UpdateStatus("waiting", "Waiting for market data...", 0)
		hb.Log().Debug("Heartbeat: no market data yet")
		return nil
	}

	status := hb.store.Status()
	message := "Ready for selective analysis"
	if ts := status.CryptoBot.LastUpdate; ts != nil {
		if updated, err := time.Parse(time.RFC3339, *ts); err == nil {
			message += ", prices updated " + humanize.Time(updated)
		}
	}

	hb.service.UpdateStatus("idle", message, 0)
	hb.Log().Debug("Heartbeat: analyzer ready",
		"assets", len(prices),
		"headlines", len(items),
		"analyses", hb.service.AnalysisCount(),
	)
	return nil
}
