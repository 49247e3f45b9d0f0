package analyzer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"pulsedesk/internal/domain/analysis"
)

// maxDescriptionChars bounds the news excerpt included in the prompt.
const maxDescriptionChars = 200

// systemPrompt pins the model to a strict JSON response shape so the
// happy path never needs the heuristic fallback.
const systemPrompt = `You are a crypto analyst. Analyze the specific coin and news provided.
Respond ONLY with JSON in this exact format:
{
  "marketSentiment": "BULLISH|BEARISH|NEUTRAL",
  "confidence": 0.0-1.0,
  "tradingSignal": "BUY|SELL|HOLD",
  "signalReason": "brief reason max 50 chars",
  "newsImpact": "how news affects this coin max 100 chars",
  "keyInsights": ["insight1 max 80 chars", "insight2 max 80 chars"]
}`

// buildPrompt renders the bounded natural-language prompt from coin
// facts and a truncated news excerpt.
func buildPrompt(coin analysis.CoinSelection, item analysis.NewsSelection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Coin: %s (%s)\n", coin.Symbol, coin.Name)
	fmt.Fprintf(&b, "Price: $%s (%+.2f%%)\n", humanize.CommafWithDigits(coin.Price, 2), coin.Change24h)
	fmt.Fprintf(&b, "Market Cap: $%sB\n", humanize.CommafWithDigits(coin.MarketCap/1e9, 2))

	fmt.Fprintf(&b, "\nNews: %q\n", item.Title)
	if item.Description != "" {
		fmt.Fprintf(&b, "Description: %q\n", truncate(item.Description, maxDescriptionChars))
	}

	b.WriteString("\nAnalyze impact of this specific news on this specific coin:")
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
