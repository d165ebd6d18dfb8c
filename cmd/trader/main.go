package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-trader/internal/feed"
	"signal-trader/internal/logger"
	"signal-trader/internal/store/gormstore"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	md, kite := initializeMarketData(ctx, cfg)
	ex := initializeExtractor(ctx, cfg)
	st := initializeStore(ctx, cfg)
	hub := initializeNotifier(ctx, cfg)
	acct := initializeLedger(cfg, md, st, hub)
	orch := initializeOrchestrator(ctx, cfg, ex, md, acct, st, hub)

	if kite != nil {
		if err := kite.Start(ctx); err != nil {
			logger.Warn(ctx, "Live ticker failed to start, falling back to REST quotes", "error", err)
		}
		defer kite.Stop(ctx)
	}

	messages := make(chan types.RawMessage, 64)
	tailer := feed.NewTailer(cfg.Feed.Path, 2*time.Second)
	go func() {
		if err := tailer.Run(ctx, messages); err != nil && ctx.Err() == nil {
			logger.ErrorWithErr(ctx, "Feed tailer stopped", err)
		}
	}()

	// Validate-only mode leaves the ledger untouched; useful for auditing a
	// chat stream before trusting it with the paper account.
	executePaper := os.Getenv("TRADER_VALIDATE_ONLY") == ""

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Signal trader started",
		"mode", cfg.Mode,
		"feed", cfg.Feed.Path,
		"poll_seconds", cfg.PollSeconds,
		"execute_paper", executePaper,
	)

	for {
		select {
		case msg := <-messages:
			result := orch.Simulate(ctx, msg, executePaper)
			b, _ := json.Marshal(result)
			fmt.Println(string(b))

		case <-tick.C:
			report, err := acct.MarkToMarket(ctx)
			if err != nil {
				logger.ErrorWithErr(ctx, "Mark-to-market sweep failed", err)
				continue
			}
			if report.Marked > 0 || report.Skipped > 0 {
				logger.Info(ctx, "Mark-to-market sweep",
					"marked", report.Marked,
					"skipped", report.Skipped,
					"auto_closed", len(report.AutoClosed),
				)
			}

		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			shutdown(ctx, st)
			return

		case <-ctx.Done():
			shutdown(ctx, st)
			return
		}
	}
}

// shutdown flushes telemetry and closes the storage handle.
func shutdown(ctx context.Context, st *gormstore.Store) {
	if st != nil {
		if err := st.Close(); err != nil {
			logger.Warn(ctx, "Failed to close storage", "error", err)
		}
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = trace.Shutdown(flushCtx)
	_ = logger.Shutdown(flushCtx)
}
