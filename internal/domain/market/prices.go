package market

// CoinPrice holds the per-asset quote in both fiat currencies.
// Field names follow the CoinGecko simple-price response so the
// frontend payload stays byte-compatible with what it already renders.
// Absent upstream fields decode to zero, never to a missing key.
type CoinPrice struct {
	USD           float64 `json:"usd"`
	INR           float64 `json:"inr"`
	USDMarketCap  float64 `json:"usd_market_cap"`
	INRMarketCap  float64 `json:"inr_market_cap"`
	USD24hVol     float64 `json:"usd_24h_vol"`
	INR24hVol     float64 `json:"inr_24h_vol"`
	USD24hChange  float64 `json:"usd_24h_change"`
	INR24hChange  float64 `json:"inr_24h_change"`
	LastUpdatedAt int64   `json:"last_updated_at"`
}

// Snapshot maps asset id to its latest quote. A nil entry means the
// upstream response did not include that asset. Snapshots are replaced
// wholesale on every successful fetch and never merged field-by-field.
type Snapshot map[string]*CoinPrice
