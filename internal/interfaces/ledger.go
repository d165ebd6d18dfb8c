package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Ledger is the paper-trading engine for one virtual account. All mutating
// operations are serialized internally; the cash-conservation invariant
// available + invested == initial + realized holds after every call.
type Ledger interface {
	Open(ctx context.Context, sig types.TradeSignal) (*types.VirtualPosition, error)
	Close(ctx context.Context, id string, exitPrice *float64, reason types.ExitReason) (*types.VirtualPosition, error)
	MarkToMarket(ctx context.Context) (types.MarkReport, error)
	Reset(ctx context.Context) error
	Summary() types.BalanceSummary
	Positions(status types.PositionStatus) []types.VirtualPosition
}
