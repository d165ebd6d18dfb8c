package ledgerobs

import (
	"context"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

// observableLedger wraps a Ledger with logging & tracing
type observableLedger struct {
	inner interfaces.Ledger
}

// Compile-time interface check
var _ interfaces.Ledger = (*observableLedger)(nil)

// Wrap wraps a ledger with observability middleware
func Wrap(inner interfaces.Ledger) interfaces.Ledger {
	return &observableLedger{inner: inner}
}

func (ol *observableLedger) Open(ctx context.Context, sig types.TradeSignal) (*types.VirtualPosition, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.Open")
	defer span.End()

	logger.Debug(ctx, "Opening paper position", "symbol", sig.Symbol, "side", sig.Side, "qty", sig.Quantity)

	pos, err := ol.inner.Open(ctx, sig)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open paper position", err, "symbol", sig.Symbol)
		return nil, err
	}

	logger.Debug(ctx, "Paper position opened", "position_id", pos.ID, "entry_price", pos.EntryPrice)
	return pos, nil
}

func (ol *observableLedger) Close(ctx context.Context, id string, exitPrice *float64, reason types.ExitReason) (*types.VirtualPosition, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.Close")
	defer span.End()

	pos, err := ol.inner.Close(ctx, id, exitPrice, reason)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to close paper position", err, "position_id", id)
		return nil, err
	}

	logger.Debug(ctx, "Paper position closed", "position_id", id, "pnl", pos.PnL, "reason", reason)
	return pos, nil
}

func (ol *observableLedger) MarkToMarket(ctx context.Context) (types.MarkReport, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.MarkToMarket")
	defer span.End()

	report, err := ol.inner.MarkToMarket(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Mark-to-market sweep failed", err)
		return report, err
	}

	logger.Debug(ctx, "Mark-to-market sweep completed",
		"marked", report.Marked,
		"skipped", report.Skipped,
		"auto_closed", len(report.AutoClosed),
	)
	return report, nil
}

func (ol *observableLedger) Reset(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "ledger.Reset")
	defer span.End()

	if err := ol.inner.Reset(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Ledger reset failed", err)
		return err
	}

	logger.Info(ctx, "Ledger reset to initial balance")
	return nil
}

func (ol *observableLedger) Summary() types.BalanceSummary {
	return ol.inner.Summary()
}

func (ol *observableLedger) Positions(status types.PositionStatus) []types.VirtualPosition {
	return ol.inner.Positions(status)
}
