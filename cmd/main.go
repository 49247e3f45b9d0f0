package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsedesk/internal/adapters/coingecko"
	"pulsedesk/internal/adapters/config"
	"pulsedesk/internal/adapters/errors/noop"
	"pulsedesk/internal/adapters/errors/sentry"
	"pulsedesk/internal/adapters/ollama"
	"pulsedesk/internal/adapters/rss"
	"pulsedesk/internal/analyzer"
	"pulsedesk/internal/api"
	"pulsedesk/internal/api/health"
	"pulsedesk/internal/domain/analysis"
	"pulsedesk/internal/metrics"
	"pulsedesk/internal/store"
	"pulsedesk/internal/workers"
	marketworkers "pulsedesk/internal/workers/market"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Register Prometheus collectors
	metrics.Init()

	// In-memory cache shared by workers and handlers
	dataStore := store.New()

	// Upstream clients
	priceClient := coingecko.New(coingecko.Config{
		BaseURL:           cfg.CoinGecko.BaseURL,
		AssetIDs:          cfg.CoinGecko.AssetIDs,
		Currencies:        cfg.CoinGecko.Currencies,
		RequestTimeout:    cfg.CoinGecko.RequestTimeout,
		RequestsPerMinute: cfg.CoinGecko.RequestsPerMinute,
	})
	newsClient := rss.New(cfg.News.FeedURL, cfg.News.RequestTimeout)
	generationClient := ollama.New(ollama.Config{
		URL:           cfg.Ollama.URL,
		Model:         cfg.Ollama.Model,
		Timeout:       cfg.Ollama.RequestTimeout,
		Temperature:   cfg.Ollama.Temperature,
		TopP:          cfg.Ollama.TopP,
		MaxTokens:     cfg.Ollama.MaxTokens,
		RepeatPenalty: cfg.Ollama.RepeatPenalty,
	})

	// Analysis service: status events land in the store so /all-data
	// always reflects the latest analyzer state
	analysisService := analyzer.New(generationClient)
	analysisService.AddStatusSink(func(update analysis.StatusUpdate) {
		dataStore.SetAnalyzerStatus(&update)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go analysisService.Start(ctx)

	// Background workers
	scheduler := workers.NewScheduler(workers.Schedule{
		WakeUpOffset: cfg.Workers.WakeUpOffset,
		WorkDuration: cfg.Workers.WorkDuration,
		PreWorkWait:  cfg.Workers.PreWorkWait,
	})
	scheduler.RegisterWorker(marketworkers.NewPriceCollector(priceClient, dataStore, cfg.Workers.PriceInterval))
	scheduler.RegisterWorker(marketworkers.NewNewsCollector(newsClient, dataStore, cfg.Workers.NewsInterval))
	scheduler.RegisterWorker(marketworkers.NewAnalysisHeartbeat(analysisService, dataStore, cfg.Workers.AnalysisInterval))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// HTTP server
	handler := api.NewHandler(dataStore, analysisService, cfg.Workers.AnalysisReplyTimeout)
	healthHandler := health.New(log, dataStore, analysisService, staleAfter(cfg), cfg.App.Name, cfg.App.Version)
	server := api.NewServer(api.ServerConfig{
		Port:         cfg.Server.Port,
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		ReplyTimeout: cfg.Workers.AnalysisReplyTimeout,
	}, handler, healthHandler, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, serverErr, func(shutdownCtx context.Context) {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Server shutdown failed: %v", err)
		}
		if err := scheduler.Stop(); err != nil {
			log.Warnf("Scheduler stop failed: %v", err)
		}
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}, cfg.Server.ShutdownTimeout, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// staleAfter derives the health staleness window from the slowest
// polling interval, with headroom for one missed cycle.
func staleAfter(cfg *config.Config) time.Duration {
	slowest := cfg.Workers.PriceInterval
	if cfg.Workers.NewsInterval > slowest {
		slowest = cfg.Workers.NewsInterval
	}
	return 3 * slowest
}

// waitForShutdown waits for a shutdown signal or a server failure and
// performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, serverErr <-chan error, stop func(context.Context), timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server failed: %v", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	stop(shutdownCtx)

	log.Info("Shutdown complete")
}
