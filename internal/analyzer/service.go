package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pulsedesk/internal/adapters/ollama"
	"pulsedesk/internal/domain/analysis"
	"pulsedesk/internal/domain/market"
	"pulsedesk/internal/domain/news"
	"pulsedesk/internal/metrics"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// StatusSink receives advisory status events at analyzer phase
// boundaries.
type StatusSink func(analysis.StatusUpdate)

// Request is one selective-analysis request travelling through the
// service's request channel. The reply channel is per-request (buffered,
// capacity 1), so a reply that arrives after the caller gave up is
// dropped instead of leaking into a later unrelated call. The uuid is
// the correlation id used in logs.
type Request struct {
	ID    uuid.UUID
	Coin  analysis.CoinSelection
	News  analysis.NewsSelection
	Reply chan *analysis.Result
}

// NewRequest builds a request with a fresh correlation id.
func NewRequest(coin analysis.CoinSelection, item analysis.NewsSelection) Request {
	return Request{
		ID:    uuid.New(),
		Coin:  coin,
		News:  item,
		Reply: make(chan *analysis.Result, 1),
	}
}

// Service runs selective analyses against the generation endpoint. At
// most one analysis is in flight per process: overlapping calls are
// dropped (nil result), never queued behind the running one.
type Service struct {
	client *ollama.Client
	log    *logger.Logger

	inFlight      atomic.Bool
	requests      chan Request
	analysisCount atomic.Int64
	errorCount    atomic.Int64

	statusMu  sync.RWMutex
	sinks     []StatusSink
	startedAt time.Time

	marketMu     sync.RWMutex
	latestPrices market.Snapshot
	latestNews   []news.Item
}

// New creates the analysis service. The request channel is unbuffered
// so a request only enters the loop when it is idle; anything arriving
// mid-analysis is rejected by Submit rather than parked.
func New(client *ollama.Client) *Service {
	return &Service{
		client:   client,
		log:      logger.Get().With("service", "analyzer"),
		requests: make(chan Request),
	}
}

// AddStatusSink registers a status listener. Call before Start.
func (s *Service) AddStatusSink(sink StatusSink) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Submit hands a request to the service loop. It never blocks and
// never queues: while an analysis is being served the loop is not
// receiving, so the send falls through to the busy rejection.
func (s *Service) Submit(req Request) error {
	select {
	case s.requests <- req:
		return nil
	default:
		s.log.Warn("Analysis in progress, dropping overlapping request", "id", req.ID, "coin", req.Coin.Symbol)
		metrics.RecordAnalysis("dropped", 0)
		return errors.Wrap(errors.ErrAnalysisBusy, "analysis already in progress")
	}
}

// Start runs the request/reply loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.log.Info("Analysis service started", "model", s.client.Model())
	s.UpdateStatus("starting", "Analysis service ready", 0)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Analysis service stopping")
			return
		case req := <-s.requests:
			result := s.Analyze(ctx, req.Coin, req.News)
			s.log.Debugw("request finished", "id", req.ID, "ok", result != nil)
			req.Reply <- result
		}
	}
}

// Analyze runs one selective analysis. It returns nil without blocking
// when another analysis is already in flight, on generation failure, or
// on timeout; malformed model output degrades to the keyword fallback
// instead.
func (s *Service) Analyze(ctx context.Context, coin analysis.CoinSelection, item analysis.NewsSelection) *analysis.Result {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("Analysis in progress, dropping overlapping request", "coin", coin.Symbol)
		metrics.RecordAnalysis("dropped", 0)
		return nil
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	s.statusMu.Lock()
	s.startedAt = start
	s.statusMu.Unlock()

	s.UpdateStatus("starting", "Starting selective analysis...", 5)

	prompt := buildPrompt(coin, item)
	s.UpdateStatus("analyzing", "Getting focused AI analysis...", 40)

	raw, err := s.client.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		s.errorCount.Add(1)
		s.log.Error("Generation failed", "coin", coin.Symbol, "error", err)
		s.UpdateStatus("error", "Selective analysis failed: "+err.Error(), 0)
		metrics.RecordAnalysis("error", time.Since(start))
		return nil
	}

	s.UpdateStatus("parsing", "Parsing selective analysis...", 80)
	parsed := parseLooseJSON(raw)

	elapsed := time.Since(start)
	result := buildResult(
		parsed, coin, item,
		s.client.Model(),
		time.Now().UTC().Format(time.RFC3339),
		elapsed.Seconds(),
	)

	s.analysisCount.Add(1)
	metrics.RecordAnalysis("success", elapsed)
	s.UpdateStatus("completed", "Selective analysis done", 100)

	s.log.Infow("analysis complete",
		"coin", coin.Symbol,
		"sentiment", result.MarketSentiment,
		"signal", result.TradingSignal,
		"elapsed", elapsed,
	)

	return result
}

// ObserveMarket records the freshest snapshot and news list as ambient
// context. The idle worker feeds this so status messages can report
// data availability.
func (s *Service) ObserveMarket(prices market.Snapshot, items []news.Item) {
	s.marketMu.Lock()
	defer s.marketMu.Unlock()
	s.latestPrices = prices
	s.latestNews = items
}

// HasMarketData reports whether any ambient market context has arrived.
func (s *Service) HasMarketData() bool {
	s.marketMu.RLock()
	defer s.marketMu.RUnlock()
	return s.latestPrices != nil || len(s.latestNews) > 0
}

// UpdateStatus publishes an advisory status event to all sinks.
func (s *Service) UpdateStatus(status, message string, progress int) {
	s.statusMu.RLock()
	sinks := s.sinks
	startedAt := s.startedAt
	s.statusMu.RUnlock()

	elapsed := 0.0
	if !startedAt.IsZero() {
		elapsed = time.Since(startedAt).Seconds()
	}

	update := analysis.StatusUpdate{
		Status:        status,
		Message:       message,
		IsAnalyzing:   s.inFlight.Load(),
		Progress:      progress,
		ElapsedTime:   elapsed,
		AnalysisCount: s.analysisCount.Load(),
		ErrorCount:    s.errorCount.Load(),
		Model:         s.client.Model(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	for _, sink := range sinks {
		sink(update)
	}
}

// ErrorCount returns the number of failed generation calls.
func (s *Service) ErrorCount() int64 {
	return s.errorCount.Load()
}

// AnalysisCount returns the number of completed analyses.
func (s *Service) AnalysisCount() int64 {
	return s.analysisCount.Load()
}
