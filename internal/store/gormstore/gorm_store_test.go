package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"signal-trader/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSavePositionUpserts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	pos := types.VirtualPosition{
		ID:         "pos-1",
		Symbol:     "RELIANCE",
		Side:       types.SideBuy,
		Quantity:   10,
		EntryPrice: 2450,
		Status:     types.StatusOpen,
		OpenedAt:   time.Now(),
	}
	if err := st.SavePosition(ctx, pos); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	open, err := st.OpenPositions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].Symbol != "RELIANCE" {
		t.Fatalf("Expected one open position, got %+v", open)
	}

	// Saving the closed state replaces, not duplicates.
	now := time.Now()
	pos.Status = types.StatusClosed
	pos.ExitPrice = types.Ptr(2500.0)
	pos.ExitReason = types.ExitTargetHit
	pos.PnL = 500
	pos.ClosedAt = &now
	if err := st.SavePosition(ctx, pos); err != nil {
		t.Fatal(err)
	}

	open, err = st.OpenPositions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Errorf("Expected no open positions after close, got %+v", open)
	}
}

func TestSaveBalance(t *testing.T) {
	st := newTestStore(t)

	err := st.SaveBalance(context.Background(), types.BalanceSummary{
		InitialBalance:   100000,
		AvailableBalance: 75500,
		InvestedAmount:   24500,
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestSaveSimulationKeepsFullResult(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	result := types.SimulationResult{
		Status:  types.SimExecuted,
		Message: types.RawMessage{Text: "BUY RELIANCE @ 2450", Sender: "tips"},
		Signal:  &types.TradeSignal{Symbol: "RELIANCE", Side: types.SideBuy, AIUsed: true},
		Steps:   []types.SimStep{{Name: "extract", Status: "ok"}},
		Time:    time.Now(),
	}
	if err := st.SaveSimulation(ctx, result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	records, err := st.RecentSimulations(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Symbol != "RELIANCE" || rec.Status != string(types.SimExecuted) || !rec.AIUsed {
		t.Errorf("Unexpected record %+v", rec)
	}
	if len(rec.Result) == 0 {
		t.Error("Expected the full result persisted as JSON")
	}
}
