package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/ledger"
	"signal-trader/internal/ledger/ledgerobs"
	"signal-trader/internal/logger"
	"signal-trader/internal/marketdata"
	"signal-trader/internal/marketdata/marketdataobs"
	"signal-trader/internal/news"
	"signal-trader/internal/notify"
	"signal-trader/internal/parser"
	"signal-trader/internal/parser/parserobs"
	"signal-trader/internal/sim"
	"signal-trader/internal/store"
	"signal-trader/internal/store/gormstore"
	"signal-trader/internal/trace"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/validator"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads the configuration, falling back to the built-in defaults
// when no config file is present.
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if os.IsNotExist(err) {
		logger.Warn(ctx, "No config.yaml found - using defaults")
		return store.DefaultConfig(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeMarketData creates the market data source with observability.
// The second return value is the raw Kite source when in LIVE mode, so the
// caller can manage the ticker lifecycle; it is nil in DRY_RUN.
func initializeMarketData(ctx context.Context, cfg *store.Config) (interfaces.MarketData, *marketdata.KiteSource) {
	md := marketdata.New(cfg)

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - quotes are simulated")
	} else if cfg.MarketData.LiveTicker {
		logger.Info(ctx, "Live ticker enabled for quote streaming")
	}

	kite, _ := md.(*marketdata.KiteSource)
	return marketdataobs.Wrap(md), kite
}

// initializeExtractor creates the extractor chain with observability
func initializeExtractor(ctx context.Context, cfg *store.Config) interfaces.Extractor {
	chain := parser.NewChain(cfg)
	if chain.AIEnabled() {
		logger.Info(ctx, "Semantic parser enabled", "model", cfg.Parser.Model)
	} else {
		logger.Warn(ctx, "No semantic parser configured - using pattern extraction only")
	}
	return parserobs.Wrap(chain)
}

// initializeStore opens the persistence layer. A nil return means the
// process runs without persistence.
func initializeStore(ctx context.Context, cfg *store.Config) *gormstore.Store {
	st, err := gormstore.New(cfg.Storage.Path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open storage, continuing without persistence", err, "path", cfg.Storage.Path)
		return nil
	}
	logger.Info(ctx, "Storage opened", "path", cfg.Storage.Path)
	return st
}

// initializeNotifier starts the WebSocket hub when enabled
func initializeNotifier(ctx context.Context, cfg *store.Config) *notify.Hub {
	if !cfg.Notify.Enabled {
		return nil
	}
	hub := notify.NewHub()
	go hub.Run()
	go func() {
		if err := hub.Serve(cfg.Notify.ListenAddr); err != nil {
			logger.ErrorWithErr(ctx, "Notification server stopped", err)
		}
	}()
	return hub
}

// initializeLedger creates the paper-trading account with observability
func initializeLedger(cfg *store.Config, md interfaces.MarketData, st *gormstore.Store, hub *notify.Hub) interfaces.Ledger {
	opts := []ledger.Option{}
	if st != nil {
		opts = append(opts, ledger.WithStore(st))
	}
	if hub != nil {
		opts = append(opts, ledger.WithNotifier(hub))
	}
	acct := ledger.NewAccount(cfg.Paper.InitialBalance, md, opts...)
	return ledgerobs.Wrap(acct)
}

// initializeOrchestrator wires the full simulation pipeline
func initializeOrchestrator(ctx context.Context, cfg *store.Config, ex interfaces.Extractor, md interfaces.MarketData, l interfaces.Ledger, st *gormstore.Store, hub *notify.Hub) interfaces.Simulator {
	v := validator.New(cfg, md)

	opts := []sim.Option{}
	if cfg.News.Enabled {
		opts = append(opts, sim.WithHeadlines(news.NewScraper(time.Duration(cfg.News.TimeoutSeconds)*time.Second)))
		logger.Info(ctx, "Headline enrichment enabled", "threshold", cfg.News.ConfidenceThreshold)
	}
	if st != nil {
		opts = append(opts, sim.WithStore(st))
	}
	if hub != nil {
		opts = append(opts, sim.WithNotifier(hub))
	}

	return sim.New(cfg, ex, v, l, opts...)
}
