package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/tradelog"
	"signal-trader/internal/types"
)

// Account is the paper-trading engine for one virtual account. All balance
// and position mutations are serialized behind a single mutex: Open and
// Close are check-then-act sequences on shared balance state, so per-field
// atomicity alone cannot keep the conservation law
//
//	available + invested == initial + realized
//
// intact across concurrent callers.
type Account struct {
	mu sync.Mutex

	initial   float64
	available float64
	invested  float64
	realized  float64

	positions map[string]*types.VirtualPosition

	marketData interfaces.MarketData
	store      interfaces.Store
	notifier   interfaces.Notifier
}

var _ interfaces.Ledger = (*Account)(nil)

// Option configures an Account.
type Option func(*Account)

// WithStore hands finished positions and balance snapshots to a persistence
// collaborator after each mutation. Failures are logged and swallowed.
func WithStore(s interfaces.Store) Option {
	return func(a *Account) { a.store = s }
}

// WithNotifier publishes an event after every Open/Close/MarkToMarket/Reset.
func WithNotifier(n interfaces.Notifier) Option {
	return func(a *Account) { a.notifier = n }
}

// NewAccount creates an account with the given starting balance.
func NewAccount(initialBalance float64, md interfaces.MarketData, opts ...Option) *Account {
	a := &Account{
		initial:    initialBalance,
		available:  initialBalance,
		positions:  make(map[string]*types.VirtualPosition),
		marketData: md,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open creates a position from a validated signal, debiting the available
// balance by quantity * entry price. Signals without an entry price are
// market orders: the latest quote is committed as the entry.
func (a *Account) Open(ctx context.Context, sig types.TradeSignal) (*types.VirtualPosition, error) {
	entry, err := a.effectiveEntryPrice(ctx, sig)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	cost := entry * float64(sig.Quantity)
	if cost > a.available {
		available := a.available
		a.mu.Unlock()
		logger.Ledger(ctx, "OPEN_REJECTED_INSUFFICIENT_FUNDS",
			"symbol", sig.Symbol, "required", cost, "available", available)
		return nil, fmt.Errorf("%w: required %.2f, available %.2f", ErrInsufficientFunds, cost, available)
	}

	pos := &types.VirtualPosition{
		ID:           uuid.NewString(),
		Symbol:       sig.Symbol,
		Side:         sig.Side,
		Quantity:     sig.Quantity,
		EntryPrice:   entry,
		CurrentPrice: entry,
		TargetPrice:  sig.TargetPrice,
		StopLoss:     sig.StopLoss,
		Exchange:     sig.Exchange,
		ProductType:  sig.ProductType,
		Status:       types.StatusOpen,
		SourceText:   sig.SourceText,
		OpenedAt:     time.Now(),
	}
	a.available -= cost
	a.invested += cost
	a.positions[pos.ID] = pos
	snapshot := *pos
	a.mu.Unlock()

	logger.Trade(ctx, pos.Symbol, string(pos.Side), pos.Quantity, pos.EntryPrice, pos.ID)
	_ = tradelog.Append(tradelog.Entry{
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Side:       string(pos.Side),
		Qty:        pos.Quantity,
		Price:      pos.EntryPrice,
		Action:     "OPEN",
	})
	a.afterMutation(ctx, snapshot, "position_opened")

	return &snapshot, nil
}

// Close terminates an open position. A nil exitPrice means "close at the
// last marked price" (falling back to the entry when never marked).
func (a *Account) Close(ctx context.Context, id string, exitPrice *float64, reason types.ExitReason) (*types.VirtualPosition, error) {
	a.mu.Lock()
	pos, ok := a.positions[id]
	if !ok {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if pos.Status != types.StatusOpen {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyClosed, id)
	}

	exit := pos.CurrentPrice
	if exitPrice != nil {
		exit = *exitPrice
	}
	a.closeLocked(pos, exit, reason, time.Now())
	snapshot := *pos
	a.mu.Unlock()

	logger.Trade(ctx, snapshot.Symbol, string(snapshot.Side), snapshot.Quantity, exit, snapshot.ID,
		"action", "CLOSE", "reason", string(reason), "pnl", snapshot.PnL)
	_ = tradelog.Append(tradelog.Entry{
		PositionID: snapshot.ID,
		Symbol:     snapshot.Symbol,
		Side:       string(snapshot.Side),
		Qty:        snapshot.Quantity,
		Price:      exit,
		Action:     "CLOSE",
		Reason:     string(reason),
		PnL:        snapshot.PnL,
	})
	a.afterMutation(ctx, snapshot, "position_closed")

	return &snapshot, nil
}

// closeLocked performs the terminal transition. Callers hold a.mu.
//
// The available balance is credited with the entry value plus the realized
// P&L. For a BUY that equals quantity * exit price; for a SELL it is the
// form that keeps the conservation law intact.
func (a *Account) closeLocked(pos *types.VirtualPosition, exit float64, reason types.ExitReason, now time.Time) {
	pnl := positionPnL(pos.Side, pos.EntryPrice, exit, pos.Quantity)

	pos.Status = types.StatusClosed
	pos.CurrentPrice = exit
	pos.ExitPrice = &exit
	pos.ExitReason = reason
	pos.ClosedAt = &now
	pos.PnL = pnl
	pos.PnLPercentage = pnlPercentage(pnl, pos.EntryPrice, pos.Quantity)

	entryValue := pos.EntryPrice * float64(pos.Quantity)
	a.invested -= entryValue
	a.available += entryValue + pnl
	a.realized += pnl
}

// MarkToMarket refreshes the current price of every open position as of a
// single snapshot of the position set, and auto-closes positions whose
// target or stop-loss has been crossed. When one tick satisfies both
// thresholds the stop-loss wins, modeling worst-case fill order.
func (a *Account) MarkToMarket(ctx context.Context) (types.MarkReport, error) {
	// Snapshot the open set first: a position opened mid-sweep is fully
	// excluded from this sweep, never partially updated.
	a.mu.Lock()
	open := make([]types.VirtualPosition, 0, len(a.positions))
	for _, p := range a.positions {
		if p.Status == types.StatusOpen {
			open = append(open, *p)
		}
	}
	a.mu.Unlock()

	var report types.MarkReport
	var closedSnapshots []types.VirtualPosition

	// Quotes are fetched outside the lock; a missing quote degrades to
	// "not marked this cycle" rather than stalling the batch.
	quotes := make(map[string]float64, len(open))
	for _, p := range open {
		if _, done := quotes[p.Symbol]; done {
			continue
		}
		price, err := a.marketData.Quote(ctx, p.Symbol, p.Exchange)
		if err != nil {
			logger.Warn(ctx, "Quote unavailable, skipping mark", "symbol", p.Symbol, "error", err)
			continue
		}
		quotes[p.Symbol] = price
	}

	now := time.Now()
	a.mu.Lock()
	for _, snap := range open {
		pos, ok := a.positions[snap.ID]
		if !ok || pos.Status != types.StatusOpen {
			continue
		}
		price, ok := quotes[pos.Symbol]
		if !ok {
			report.Skipped++
			continue
		}

		pos.CurrentPrice = price
		pos.PnL = positionPnL(pos.Side, pos.EntryPrice, price, pos.Quantity)
		pos.PnLPercentage = pnlPercentage(pos.PnL, pos.EntryPrice, pos.Quantity)
		report.Marked++

		if reason, hit := exitTrigger(pos, price); hit {
			a.closeLocked(pos, price, reason, now)
			closed := *pos
			report.AutoClosed = append(report.AutoClosed, closed)
			closedSnapshots = append(closedSnapshots, closed)
		}
	}
	a.mu.Unlock()

	for _, closed := range closedSnapshots {
		logger.Ledger(ctx, "AUTO_CLOSE",
			"symbol", closed.Symbol,
			"position_id", closed.ID,
			"reason", string(closed.ExitReason),
			"exit_price", *closed.ExitPrice,
			"pnl", closed.PnL,
		)
		_ = tradelog.Append(tradelog.Entry{
			PositionID: closed.ID,
			Symbol:     closed.Symbol,
			Side:       string(closed.Side),
			Qty:        closed.Quantity,
			Price:      *closed.ExitPrice,
			Action:     "CLOSE",
			Reason:     string(closed.ExitReason),
			PnL:        closed.PnL,
		})
		a.afterMutation(ctx, closed, "position_closed")
	}

	if a.notifier != nil {
		a.notifier.Publish(types.Event{Type: "mark_to_market", Payload: report, Time: time.Now()})
	}

	return report, nil
}

// exitTrigger evaluates the auto-close thresholds for a freshly marked
// price. Stop-loss is checked before target on both sides. Positions
// without a threshold are never auto-closed on that missing threshold.
func exitTrigger(pos *types.VirtualPosition, price float64) (types.ExitReason, bool) {
	switch pos.Side {
	case types.SideBuy:
		if pos.StopLoss != nil && price <= *pos.StopLoss {
			return types.ExitSLHit, true
		}
		if pos.TargetPrice != nil && price >= *pos.TargetPrice {
			return types.ExitTargetHit, true
		}
	case types.SideSell:
		if pos.StopLoss != nil && price >= *pos.StopLoss {
			return types.ExitSLHit, true
		}
		if pos.TargetPrice != nil && price <= *pos.TargetPrice {
			return types.ExitTargetHit, true
		}
	}
	return "", false
}

// Reset force-closes every open position with the RESET exit reason, clears
// the position set and restores the initial balance. The closes are journaled
// and persisted so no stored row is left open. Irreversible; intended for
// test/demo use.
func (a *Account) Reset(ctx context.Context) error {
	now := time.Now()

	a.mu.Lock()
	cleared := len(a.positions)
	forceClosed := make([]types.VirtualPosition, 0, cleared)
	for _, p := range a.positions {
		if p.Status == types.StatusOpen {
			a.closeLocked(p, p.CurrentPrice, types.ExitReset, now)
			forceClosed = append(forceClosed, *p)
		}
	}
	a.positions = make(map[string]*types.VirtualPosition)
	a.available = a.initial
	a.invested = 0
	a.realized = 0
	summary := a.summaryLocked()
	a.mu.Unlock()

	logger.Ledger(ctx, "RESET", "cleared_positions", cleared, "force_closed", len(forceClosed))

	for _, pos := range forceClosed {
		_ = tradelog.Append(tradelog.Entry{
			PositionID: pos.ID,
			Symbol:     pos.Symbol,
			Side:       string(pos.Side),
			Qty:        pos.Quantity,
			Price:      *pos.ExitPrice,
			Action:     "CLOSE",
			Reason:     string(pos.ExitReason),
			PnL:        pos.PnL,
		})
		if a.store != nil {
			if err := a.store.SavePosition(ctx, pos); err != nil {
				logger.Warn(ctx, "Failed to persist position on reset", "position_id", pos.ID, "error", err)
			}
		}
	}

	if a.store != nil {
		if err := a.store.SaveBalance(ctx, summary); err != nil {
			logger.Warn(ctx, "Failed to persist balance after reset", "error", err)
		}
	}
	if a.notifier != nil {
		a.notifier.Publish(types.Event{Type: "ledger_reset", Payload: summary, Time: time.Now()})
	}
	return nil
}

// Summary returns a point-in-time snapshot of the account.
func (a *Account) Summary() types.BalanceSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summaryLocked()
}

func (a *Account) summaryLocked() types.BalanceSummary {
	var unrealized float64
	var openCount, closedCount int
	for _, p := range a.positions {
		if p.Status == types.StatusOpen {
			unrealized += p.PnL
			openCount++
		} else {
			closedCount++
		}
	}

	total := a.realized + unrealized
	s := types.BalanceSummary{
		InitialBalance:   a.initial,
		AvailableBalance: a.available,
		InvestedAmount:   a.invested,
		RealizedPnL:      a.realized,
		UnrealizedPnL:    unrealized,
		TotalPnL:         total,
		OpenPositions:    openCount,
		ClosedPositions:  closedCount,
	}
	if a.initial > 0 {
		s.TotalPnLPct = total / a.initial * 100
	}
	return s
}

// Positions returns copies of all positions with the given status, oldest
// first. Closed positions are the full trade history.
func (a *Account) Positions(status types.PositionStatus) []types.VirtualPosition {
	a.mu.Lock()
	out := make([]types.VirtualPosition, 0, len(a.positions))
	for _, p := range a.positions {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

func (a *Account) effectiveEntryPrice(ctx context.Context, sig types.TradeSignal) (float64, error) {
	if sig.EntryPrice != nil {
		return *sig.EntryPrice, nil
	}
	price, err := a.marketData.Quote(ctx, sig.Symbol, sig.Exchange)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, sig.Symbol, err)
	}
	return price, nil
}

// afterMutation hands the finished position and a fresh balance snapshot to
// the storage and notification collaborators. Both are degrade-not-fail.
func (a *Account) afterMutation(ctx context.Context, pos types.VirtualPosition, eventType string) {
	if a.store != nil {
		if err := a.store.SavePosition(ctx, pos); err != nil {
			logger.Warn(ctx, "Failed to persist position", "position_id", pos.ID, "error", err)
		}
		if err := a.store.SaveBalance(ctx, a.Summary()); err != nil {
			logger.Warn(ctx, "Failed to persist balance", "error", err)
		}
	}
	if a.notifier != nil {
		a.notifier.Publish(types.Event{Type: eventType, Payload: pos, Time: time.Now()})
	}
}

// positionPnL is (exit - entry) * qty for BUY and (entry - exit) * qty for SELL.
func positionPnL(side types.Side, entry, exit float64, qty int) float64 {
	if side == types.SideSell {
		return (entry - exit) * float64(qty)
	}
	return (exit - entry) * float64(qty)
}

func pnlPercentage(pnl, entry float64, qty int) float64 {
	base := entry * float64(qty)
	if base == 0 {
		return 0
	}
	return pnl / base * 100
}
