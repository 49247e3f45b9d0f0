package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsedesk/internal/domain/analysis"
)

func TestParseLooseJSON_PlainObject(t *testing.T) {
	parsed := parseLooseJSON(`{"marketSentiment":"BULLISH","confidence":0.9,"tradingSignal":"BUY","signalReason":"ETF inflow","newsImpact":"Positive for BTC","keyInsights":["Inflows rising"]}`)

	assert.Equal(t, analysis.SentimentBullish, parsed.MarketSentiment)
	assert.Equal(t, 0.9, parsed.Confidence)
	assert.Equal(t, analysis.SignalBuy, parsed.TradingSignal)
	assert.Equal(t, "ETF inflow", parsed.SignalReason)
	assert.Equal(t, []string{"Inflows rising"}, parsed.KeyInsights)
}

func TestParseLooseJSON_CodeFences(t *testing.T) {
	raw := "```json\n{\"marketSentiment\":\"BEARISH\",\"confidence\":0.7,\"tradingSignal\":\"SELL\"}\n```"

	parsed := parseLooseJSON(raw)
	assert.Equal(t, analysis.SentimentBearish, parsed.MarketSentiment)
	assert.Equal(t, analysis.SignalSell, parsed.TradingSignal)
}

func TestParseLooseJSON_ObjectBuriedInProse(t *testing.T) {
	raw := `Sure! Here is my analysis:
{"marketSentiment":"NEUTRAL","confidence":0.5,"tradingSignal":"HOLD"}
Let me know if you need anything else.`

	parsed := parseLooseJSON(raw)
	assert.Equal(t, analysis.SentimentNeutral, parsed.MarketSentiment)
	assert.Equal(t, analysis.SignalHold, parsed.TradingSignal)
}

func TestParseLooseJSON_BearishTextFallback(t *testing.T) {
	parsed := parseLooseJSON("The outlook is very bearish right now, expect further declines.")

	assert.Equal(t, analysis.SentimentBearish, parsed.MarketSentiment)
	assert.Equal(t, analysis.SignalSell, parsed.TradingSignal)
	assert.Equal(t, 0.6, parsed.Confidence)
	assert.NotEmpty(t, parsed.KeyInsights)
}

func TestParseLooseJSON_BullishTextFallback(t *testing.T) {
	parsed := parseLooseJSON("Overall a positive development for the market.")

	assert.Equal(t, analysis.SentimentBullish, parsed.MarketSentiment)
	assert.Equal(t, analysis.SignalBuy, parsed.TradingSignal)
}

func TestParseLooseJSON_NeutralTextFallback(t *testing.T) {
	parsed := parseLooseJSON("No clear direction here.")

	assert.Equal(t, analysis.SentimentNeutral, parsed.MarketSentiment)
	assert.Equal(t, analysis.SignalHold, parsed.TradingSignal)
}

func TestBuildResult_ClampsConfidence(t *testing.T) {
	coin := analysis.CoinSelection{Symbol: "BTC", Name: "Bitcoin"}
	item := analysis.NewsSelection{Title: "headline"}

	high := buildResult(parsedFields{Confidence: 1.4}, coin, item, "llama3.2", "ts", 1)
	assert.Equal(t, 1.0, high.Confidence)

	low := buildResult(parsedFields{Confidence: -0.2}, coin, item, "llama3.2", "ts", 1)
	assert.Equal(t, 0.0, low.Confidence)
}

func TestBuildResult_DefaultsAbsentFields(t *testing.T) {
	coin := analysis.CoinSelection{Symbol: "ETH", Name: "Ethereum"}
	item := analysis.NewsSelection{Title: "merge news"}

	result := buildResult(parsedFields{}, coin, item, "llama3.2", "ts", 2.5)

	assert.Equal(t, analysis.SentimentNeutral, result.MarketSentiment)
	assert.Equal(t, analysis.SignalHold, result.TradingSignal)
	assert.Equal(t, 0.5, result.Confidence)
	assert.NotEmpty(t, result.SignalReason)
	assert.NotEmpty(t, result.NewsImpact)
	assert.Equal(t, []string{"Analysis completed"}, result.KeyInsights)
	assert.Equal(t, "ETH (Ethereum)", result.CoinAnalyzed)
	assert.Equal(t, "merge news", result.NewsAnalyzed)
	assert.Equal(t, "llama3.2", result.Model)
	assert.Equal(t, 2.5, result.ResponseTime)
}

func TestBuildResult_CapsInsightsAtThree(t *testing.T) {
	parsed := parsedFields{
		KeyInsights: []string{"one", "two", "three", "four", "five"},
	}

	result := buildResult(parsed, analysis.CoinSelection{}, analysis.NewsSelection{}, "m", "ts", 0)
	assert.Equal(t, []string{"one", "two", "three"}, result.KeyInsights)
}

func TestBuildPrompt_TruncatesDescription(t *testing.T) {
	coin := analysis.CoinSelection{
		Symbol:    "BTC",
		Name:      "Bitcoin",
		Price:     50000,
		Change24h: 2.1,
		MarketCap: 900_000_000_000,
	}
	item := analysis.NewsSelection{
		Title:       "ETF approved",
		Description: strings.Repeat("x", 500),
	}

	prompt := buildPrompt(coin, item)

	assert.Contains(t, prompt, "BTC (Bitcoin)")
	assert.Contains(t, prompt, "+2.10%")
	assert.Contains(t, prompt, "ETF approved")
	assert.Contains(t, prompt, strings.Repeat("x", maxDescriptionChars))
	assert.NotContains(t, prompt, strings.Repeat("x", maxDescriptionChars+1))
}

func TestBuildPrompt_SkipsEmptyDescription(t *testing.T) {
	prompt := buildPrompt(
		analysis.CoinSelection{Symbol: "DOGE", Name: "Dogecoin"},
		analysis.NewsSelection{Title: "much wow"},
	)

	require.NotContains(t, prompt, "Description:")
}
