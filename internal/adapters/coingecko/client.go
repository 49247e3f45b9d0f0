package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pulsedesk/internal/adapters/ratelimit"
	"pulsedesk/internal/domain/market"
	"pulsedesk/internal/metrics"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// assetAliases maps CoinGecko ids to the asset ids the dashboard uses.
// CoinGecko's canonical id for Avalanche carries a version suffix.
var assetAliases = map[string]string{
	"avalanche-2": "avalanche",
}

// Client fetches spot prices from the CoinGecko simple-price endpoint.
// The query is fixed at construction: a set of asset ids against a set
// of fiat currencies, with market cap, 24h volume, 24h change and the
// last-updated timestamp included.
type Client struct {
	baseURL    string
	assetIDs   []string
	currencies []string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logger.Logger
}

// Config holds Client construction parameters.
type Config struct {
	BaseURL           string
	AssetIDs          []string
	Currencies        []string
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

// New creates a CoinGecko client.
func New(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		assetIDs:   cfg.AssetIDs,
		currencies: cfg.Currencies,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    ratelimit.NewLimiter("coingecko", cfg.RequestsPerMinute),
		log:        logger.Get().With("adapter", "coingecko"),
	}
}

// FetchPrices queries the simple-price endpoint and normalizes the
// response into a Snapshot. Assets missing from the response yield nil
// entries; numeric fields missing inside a present asset decode to 0.
func (c *Client) FetchPrices(ctx context.Context) (market.Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.fetch(ctx)
	metrics.RecordUpstreamCall("coingecko", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	snap := make(market.Snapshot, len(c.assetIDs))
	for _, id := range c.assetIDs {
		name := id
		if alias, ok := assetAliases[id]; ok {
			name = alias
		}
		snap[name] = convertCoin(raw[id])
	}

	return snap, nil
}

func (c *Client) fetch(ctx context.Context) (map[string]map[string]float64, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(c.assetIDs, ","))
	q.Set("vs_currencies", strings.Join(c.currencies, ","))
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	q.Set("include_last_updated_at", "true")

	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch prices")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Wrapf(errors.ErrUpstreamStatus, "coingecko status %d: %s", resp.StatusCode, string(body))
	}

	var raw map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrUpstreamPayload, err.Error())
	}

	return raw, nil
}

// convertCoin normalizes one asset's fields. Map lookups on absent keys
// return 0, which is exactly the degrade policy: numeric fields are
// never missing, only zero.
func convertCoin(fields map[string]float64) *market.CoinPrice {
	if fields == nil {
		return nil
	}

	updated := int64(fields["last_updated_at"])
	if updated == 0 {
		updated = time.Now().Unix()
	}

	return &market.CoinPrice{
		USD:           fields["usd"],
		INR:           fields["inr"],
		USDMarketCap:  fields["usd_market_cap"],
		INRMarketCap:  fields["inr_market_cap"],
		USD24hVol:     fields["usd_24h_vol"],
		INR24hVol:     fields["inr_24h_vol"],
		USD24hChange:  fields["usd_24h_change"],
		INR24hChange:  fields["inr_24h_change"],
		LastUpdatedAt: updated,
	}
}
