package analyzer

import (
	"encoding/json"
	"regexp"
	"strings"

	"pulsedesk/internal/domain/analysis"
)

// parsedFields is the raw analysis shape the model is asked to emit.
type parsedFields struct {
	MarketSentiment string   `json:"marketSentiment"`
	Confidence      float64  `json:"confidence"`
	TradingSignal   string   `json:"tradingSignal"`
	SignalReason    string   `json:"signalReason"`
	NewsImpact      string   `json:"newsImpact"`
	KeyInsights     []string `json:"keyInsights"`
}

var codeFenceRe = regexp.MustCompile("(?i)```(?:json)?")

// parseLooseJSON extracts an analysis object from free-text model
// output. Code fences are stripped and the outermost {...} block is
// tried as JSON; when that fails the keyword heuristic produces a
// fallback instead of an error. A raw parse failure never escapes this
// function.
func parseLooseJSON(raw string) parsedFields {
	clean := codeFenceRe.ReplaceAllString(raw, "")
	clean = strings.TrimSpace(clean)

	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first >= 0 && last > first {
		var parsed parsedFields
		if err := json.Unmarshal([]byte(clean[first:last+1]), &parsed); err == nil {
			return parsed
		}
	}

	return keywordFallback(raw)
}

// keywordFallback scans the response text for sentiment keywords and
// synthesizes a minimal analysis instead of failing outright.
func keywordFallback(raw string) parsedFields {
	text := strings.ToLower(raw)

	sentiment := analysis.SentimentNeutral
	signal := analysis.SignalHold

	switch {
	case strings.Contains(text, "bullish") || strings.Contains(text, "positive"):
		sentiment = analysis.SentimentBullish
		signal = analysis.SignalBuy
	case strings.Contains(text, "bearish") || strings.Contains(text, "negative"):
		sentiment = analysis.SentimentBearish
		signal = analysis.SignalSell
	}

	return parsedFields{
		MarketSentiment: sentiment,
		Confidence:      0.6,
		TradingSignal:   signal,
		SignalReason:    "Analysis based on sentiment detection",
		NewsImpact:      "Sentiment analyzed from response",
		KeyInsights:     []string{"Sentiment detected", "Fallback analysis applied"},
	}
}

// buildResult validates parsed fields into a complete Result: absent
// fields get defaults rather than being omitted, confidence is clamped
// to [0,1] and at most three insights survive.
func buildResult(parsed parsedFields, coin analysis.CoinSelection, item analysis.NewsSelection, model, timestamp string, responseTime float64) *analysis.Result {
	sentiment := parsed.MarketSentiment
	if sentiment == "" {
		sentiment = analysis.SentimentNeutral
	}

	signal := parsed.TradingSignal
	if signal == "" {
		signal = analysis.SignalHold
	}

	confidence := parsed.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	confidence = clamp01(confidence)

	reason := parsed.SignalReason
	if reason == "" {
		reason = "Analysis in progress"
	}

	impact := parsed.NewsImpact
	if impact == "" {
		impact = "News impact being processed"
	}

	insights := parsed.KeyInsights
	if len(insights) == 0 {
		insights = []string{"Analysis completed"}
	}
	if len(insights) > 3 {
		insights = insights[:3]
	}

	return &analysis.Result{
		MarketSentiment: sentiment,
		Confidence:      confidence,
		TradingSignal:   signal,
		SignalReason:    reason,
		NewsImpact:      impact,
		KeyInsights:     insights,
		Timestamp:       timestamp,
		Model:           model,
		ResponseTime:    responseTime,
		CoinAnalyzed:    coin.Symbol + " (" + coin.Name + ")",
		NewsAnalyzed:    item.Title,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
