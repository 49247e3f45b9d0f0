package api

import (
	"encoding/json"
	"net/http"
	"time"

	"pulsedesk/internal/analyzer"
	"pulsedesk/internal/domain/analysis"
	"pulsedesk/internal/metrics"
	"pulsedesk/internal/store"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// AnalysisBackend accepts selective-analysis requests. Replies arrive
// on the request's own channel.
type AnalysisBackend interface {
	Submit(req analyzer.Request) error
}

// Handler serves the dashboard data endpoints from the in-memory
// store. A nil backend means the analysis endpoint reports the service
// unavailable instead of failing requests elsewhere.
type Handler struct {
	store        *store.Store
	backend      AnalysisBackend
	replyTimeout time.Duration
	log          *logger.Logger
}

// NewHandler creates the data endpoint handler.
func NewHandler(st *store.Store, backend AnalysisBackend, replyTimeout time.Duration) *Handler {
	return &Handler{
		store:        st,
		backend:      backend,
		replyTimeout: replyTimeout,
		log:          logger.Get().With("component", "api"),
	}
}

// HandlePrices serves the latest price snapshot. An empty cache serves
// an empty object, never an error.
func (h *Handler) HandlePrices(w http.ResponseWriter, r *http.Request) {
	prices := h.store.Prices()
	if prices == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

// HandleNews serves the cached headline list, empty list when nothing
// has been collected yet.
func (h *Handler) HandleNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.News())
}

// HandleAllData serves the combined snapshot.
func (h *Handler) HandleAllData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.AllData())
}

// analyzeSelectionRequest is the browser's coin+headline pair.
type analyzeSelectionRequest struct {
	Coin *analysis.CoinSelection `json:"coin"`
	News *analysis.NewsSelection `json:"news"`
}

// HandleAnalyzeSelection runs one synchronous analysis for the
// selected coin and headline. The call blocks until the analyzer
// replies or the reply timeout passes; a timed-out reply is dropped by
// the buffered reply channel rather than delivered to a later caller.
func (h *Handler) HandleAnalyzeSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var body analyzeSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Coin == nil || body.News == nil {
		writeError(w, http.StatusBadRequest, "both coin and news selections are required")
		return
	}

	if h.backend == nil {
		writeError(w, http.StatusServiceUnavailable, errors.ErrAnalyzerUnavailable.Error())
		return
	}

	req := analyzer.NewRequest(*body.Coin, *body.News)
	if err := h.backend.Submit(req); err != nil {
		h.log.Warn("Analysis submit rejected", "id", req.ID, "error", err)
		if errors.Is(err, errors.ErrAnalysisBusy) {
			writeError(w, http.StatusServiceUnavailable, "another analysis is already running")
			return
		}
		writeError(w, http.StatusServiceUnavailable, errors.ErrAnalyzerUnavailable.Error())
		return
	}

	select {
	case result := <-req.Reply:
		if result == nil {
			writeError(w, http.StatusInternalServerError, "analysis failed")
			return
		}
		h.store.SetAnalysis(result)
		writeJSON(w, http.StatusOK, result)

	case <-time.After(h.replyTimeout):
		h.log.Warn("Analysis reply timed out", "id", req.ID, "timeout", h.replyTimeout)
		metrics.RecordAnalysis("timeout", h.replyTimeout)
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")

	case <-r.Context().Done():
		h.log.Debug("Client gone before analysis reply", "id", req.ID)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
