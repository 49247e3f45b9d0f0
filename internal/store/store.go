package store

import (
	"sync"
	"time"

	"pulsedesk/internal/domain/analysis"
	"pulsedesk/internal/domain/market"
	"pulsedesk/internal/domain/news"
)

// Source status values reported per worker.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// SourceStatus is the freshness record for one polling worker.
type SourceStatus struct {
	LastUpdate *string `json:"lastUpdate"`
	Status     string  `json:"status"`
}

// SystemStatus carries one entry per worker. Key names match the
// original frontend contract.
type SystemStatus struct {
	CryptoBot SourceStatus `json:"cryptoBot"`
	NewsBot   SourceStatus `json:"newsBot"`
	OllamaBot SourceStatus `json:"ollamaBot"`
}

// AllData is the combined snapshot served by /all-data. Every key is
// always present: nil maps/pointers marshal to null, the news slice is
// never nil so it marshals to [].
type AllData struct {
	CryptoPrices   market.Snapshot        `json:"cryptoPrices"`
	CryptoNews     []news.Item            `json:"cryptoNews"`
	OllamaAnalysis *analysis.Result       `json:"ollamaAnalysis"`
	AnalyzerStatus *analysis.StatusUpdate `json:"analyzerStatus"`
	SystemStatus   SystemStatus           `json:"systemStatus"`
	LastUpdated    string                 `json:"lastUpdated"`
}

// Store is the process-wide cache of the latest fetched data. It is
// created at startup, injected into workers and handlers, and holds
// nothing beyond the process lifetime. Each field is swapped as a whole
// value under the lock, so readers never observe a partial update.
type Store struct {
	mu sync.RWMutex

	prices         market.Snapshot
	news           []news.Item
	analysis       *analysis.Result
	analyzerStatus *analysis.StatusUpdate
	status         SystemStatus

	now func() time.Time
}

// New creates an empty store. All sources start inactive with no
// lastUpdate timestamp.
func New() *Store {
	return &Store{
		news: []news.Item{},
		status: SystemStatus{
			CryptoBot: SourceStatus{Status: StatusInactive},
			NewsBot:   SourceStatus{Status: StatusInactive},
			OllamaBot: SourceStatus{Status: StatusInactive},
		},
		now: time.Now,
	}
}

// SetPrices replaces the price snapshot wholesale and marks the price
// source fresh.
func (s *Store) SetPrices(snap market.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = snap
	s.stamp(&s.status.CryptoBot)
}

// SetNews replaces the news list wholesale, keeping feed order.
func (s *Store) SetNews(items []news.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []news.Item{}
	}
	s.news = items
	s.stamp(&s.status.NewsBot)
}

// SetAnalysis stores the latest completed analysis.
func (s *Store) SetAnalysis(result *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = result
	s.stamp(&s.status.OllamaBot)
}

// SetAnalyzerStatus stores the latest advisory analyzer status event.
func (s *Store) SetAnalyzerStatus(status *analysis.StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzerStatus = status
}

// Prices returns the current snapshot, nil before the first fetch.
func (s *Store) Prices() market.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices
}

// News returns the current news list, empty before the first fetch.
func (s *Store) News() []news.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.news
}

// Analysis returns the latest analysis, nil before the first one.
func (s *Store) Analysis() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// Status returns the per-source freshness records.
func (s *Store) Status() SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// AllData assembles the combined snapshot with a response-generation
// timestamp.
func (s *Store) AllData() AllData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AllData{
		CryptoPrices:   s.prices,
		CryptoNews:     s.news,
		OllamaAnalysis: s.analysis,
		AnalyzerStatus: s.analyzerStatus,
		SystemStatus:   s.status,
		LastUpdated:    s.now().UTC().Format(time.RFC3339),
	}
}

func (s *Store) stamp(src *SourceStatus) {
	ts := s.now().UTC().Format(time.RFC3339)
	src.LastUpdate = &ts
	src.Status = StatusActive
}
