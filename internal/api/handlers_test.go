package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsedesk/internal/analyzer"
	"pulsedesk/internal/domain/analysis"
	"pulsedesk/internal/domain/market"
	"pulsedesk/internal/domain/news"
	"pulsedesk/internal/store"
)

// fakeBackend replies to each request per the configured behavior.
type fakeBackend struct {
	result    *analysis.Result
	submitErr error
	silent    bool // never reply, to exercise the timeout path
}

func (f *fakeBackend) Submit(req analyzer.Request) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	if !f.silent {
		req.Reply <- f.result
	}
	return nil
}

func analyzeBody() string {
	return `{
		"coin": {"symbol": "BTC", "name": "Bitcoin", "price": 50000, "change24h": 2.5, "marketCap": 900000000000},
		"news": {"title": "ETF inflows hit record", "description": "Largest daily inflow."}
	}`
}

func TestHandlePrices_EmptyCache(t *testing.T) {
	h := NewHandler(store.New(), nil, time.Second)

	rec := httptest.NewRecorder()
	h.HandlePrices(rec, httptest.NewRequest(http.MethodGet, "/crypto-prices", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", strings.TrimSpace(rec.Body.String()))
}

func TestHandlePrices_WithSnapshot(t *testing.T) {
	st := store.New()
	st.SetPrices(market.Snapshot{"bitcoin": &market.CoinPrice{USD: 50000}})
	h := NewHandler(st, nil, time.Second)

	rec := httptest.NewRecorder()
	h.HandlePrices(rec, httptest.NewRequest(http.MethodGet, "/crypto-prices", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, 50000.0, decoded["bitcoin"]["usd"])
}

func TestHandleNews_EmptyCache(t *testing.T) {
	h := NewHandler(store.New(), nil, time.Second)

	rec := httptest.NewRecorder()
	h.HandleNews(rec, httptest.NewRequest(http.MethodGet, "/crypto-news", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleAllData_AlwaysCarriesEveryKey(t *testing.T) {
	st := store.New()
	st.SetNews([]news.Item{{Title: "headline"}})
	h := NewHandler(st, nil, time.Second)

	rec := httptest.NewRecorder()
	h.HandleAllData(rec, httptest.NewRequest(http.MethodGet, "/all-data", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	for _, key := range []string{"cryptoPrices", "cryptoNews", "ollamaAnalysis", "analyzerStatus", "systemStatus", "lastUpdated"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "null", string(decoded["cryptoPrices"]))
}

func TestAnalyzeSelection_Success(t *testing.T) {
	st := store.New()
	backend := &fakeBackend{
		result: &analysis.Result{
			MarketSentiment: analysis.SentimentBullish,
			Confidence:      0.85,
			TradingSignal:   analysis.SignalBuy,
		},
	}
	h := NewHandler(st, backend, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(analyzeBody()))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, analysis.SentimentBullish, result.MarketSentiment)

	// The completed analysis is cached for /all-data.
	require.NotNil(t, st.Analysis())
	assert.Equal(t, analysis.SignalBuy, st.Analysis().TradingSignal)
}

func TestAnalyzeSelection_MissingSelections(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{}, time.Second)

	for name, body := range map[string]string{
		"no news":    `{"coin": {"symbol": "BTC"}}`,
		"no coin":    `{"news": {"title": "headline"}}`,
		"empty body": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(body))
			h.HandleAnalyzeSelection(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyzeSelection_InvalidJSON(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader("{not json"))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeSelection_NoBackend(t *testing.T) {
	h := NewHandler(store.New(), nil, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(analyzeBody()))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeSelection_SubmitRejected(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{submitErr: assert.AnError}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(analyzeBody()))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeSelection_NilResult(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{result: nil}, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(analyzeBody()))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyzeSelection_ReplyTimeout(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{silent: true}, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(analyzeBody()))
	h.HandleAnalyzeSelection(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAnalyzeSelection_GetRejected(t *testing.T) {
	h := NewHandler(store.New(), &fakeBackend{}, time.Second)

	rec := httptest.NewRecorder()
	h.HandleAnalyzeSelection(rec, httptest.NewRequest(http.MethodGet, "/analyze-selection", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the mux")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze-selection", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
