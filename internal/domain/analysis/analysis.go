package analysis

// Sentiment labels emitted by the analyzer.
const (
	SentimentBullish = "BULLISH"
	SentimentBearish = "BEARISH"
	SentimentNeutral = "NEUTRAL"
)

// Trading signal labels emitted by the analyzer.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

// CoinSelection is the coin half of a selective-analysis request.
type CoinSelection struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	MarketCap float64 `json:"marketCap"`
}

// NewsSelection is the news half of a selective-analysis request.
type NewsSelection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   string `json:"published"`
}

// Result is one completed analysis. Produced per request, never merged
// with prior results. Confidence is always clamped to [0,1] and the
// label fields always carry one of the constants above.
type Result struct {
	MarketSentiment string   `json:"marketSentiment"`
	Confidence      float64  `json:"confidence"`
	TradingSignal   string   `json:"tradingSignal"`
	SignalReason    string   `json:"signalReason"`
	NewsImpact      string   `json:"newsImpact"`
	KeyInsights     []string `json:"keyInsights"`
	Timestamp       string   `json:"timestamp"`
	Model           string   `json:"model"`
	ResponseTime    float64  `json:"responseTime"`
	CoinAnalyzed    string   `json:"coinAnalyzed"`
	NewsAnalyzed    string   `json:"newsAnalyzed"`
}

// StatusUpdate is an advisory progress event emitted at analyzer phase
// boundaries. It is observability data, not part of the result contract.
type StatusUpdate struct {
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	IsAnalyzing   bool    `json:"isAnalyzing"`
	Progress      int     `json:"progress"`
	ElapsedTime   float64 `json:"elapsedTime"`
	AnalysisCount int64   `json:"analysisCount"`
	ErrorCount    int64   `json:"errorCount"`
	Model         string  `json:"model"`
	Timestamp     string  `json:"timestamp"`
}
