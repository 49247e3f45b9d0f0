package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"pulsedesk/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	CoinGecko     CoinGeckoConfig
	News          NewsConfig
	Ollama        OllamaConfig
	Workers       WorkerConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"pulsedesk"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"3001"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

// CoinGeckoConfig drives the price fetcher. AssetIDs are CoinGecko
// canonical ids; aliases (avalanche-2 -> avalanche) are applied by the
// adapter, not configured here.
type CoinGeckoConfig struct {
	BaseURL           string        `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3"`
	AssetIDs          []string      `envconfig:"COINGECKO_ASSET_IDS" default:"bitcoin,ethereum,solana,cardano,polkadot,chainlink,avalanche-2,dogecoin,binancecoin"`
	Currencies        []string      `envconfig:"COINGECKO_CURRENCIES" default:"usd,inr"`
	RequestTimeout    time.Duration `envconfig:"COINGECKO_REQUEST_TIMEOUT" default:"15s"`
	RequestsPerMinute int           `envconfig:"COINGECKO_REQUESTS_PER_MINUTE" default:"10"`
}

type NewsConfig struct {
	FeedURL        string        `envconfig:"NEWS_FEED_URL" default:"https://www.coindesk.com/arc/outboundfeeds/rss/"`
	RequestTimeout time.Duration `envconfig:"NEWS_REQUEST_TIMEOUT" default:"15s"`
}

// OllamaConfig drives the local generation endpoint client. Options map
// straight onto the /api/generate payload.
type OllamaConfig struct {
	URL            string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	Model          string        `envconfig:"OLLAMA_MODEL" default:"llama3.2"`
	RequestTimeout time.Duration `envconfig:"OLLAMA_REQUEST_TIMEOUT" default:"25s"`
	Temperature    float64       `envconfig:"OLLAMA_TEMPERATURE" default:"0.05"`
	TopP           float64       `envconfig:"OLLAMA_TOP_P" default:"0.6"`
	MaxTokens      int           `envconfig:"OLLAMA_MAX_TOKENS" default:"200"`
	RepeatPenalty  float64       `envconfig:"OLLAMA_REPEAT_PENALTY" default:"1.1"`
}

// WorkerConfig holds the shared rest/work/sleep cadence plus per-worker
// intervals. WakeUpOffset is the daily window start as an offset from
// local midnight; a zero WorkDuration disables the window entirely and
// workers start immediately.
type WorkerConfig struct {
	WakeUpOffset time.Duration `envconfig:"WORKER_WAKEUP_OFFSET" default:"0"`
	WorkDuration time.Duration `envconfig:"WORKER_WORK_DURATION" default:"0"`
	PreWorkWait  time.Duration `envconfig:"WORKER_PREWORK_WAIT" default:"5s"`

	PriceInterval    time.Duration `envconfig:"WORKER_PRICE_INTERVAL" default:"60s"`
	NewsInterval     time.Duration `envconfig:"WORKER_NEWS_INTERVAL" default:"60s"`
	AnalysisInterval time.Duration `envconfig:"WORKER_ANALYSIS_INTERVAL" default:"90s"`

	AnalysisReplyTimeout time.Duration `envconfig:"ANALYSIS_REPLY_TIMEOUT" default:"30s"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
