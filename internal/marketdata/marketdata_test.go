package marketdata

import (
	"context"
	"math"
	"testing"

	"signal-trader/internal/store"
)

func TestInstrumentMapper(t *testing.T) {
	m := newInstrumentMapper()
	m.addMapping("RELIANCE", "NSE", 738561)
	m.addMapping("TCS", "NSE", 2953217)

	token, exchange, ok := m.getToken("RELIANCE")
	if !ok || token != 738561 || exchange != "NSE" {
		t.Errorf("Unexpected mapping: %d %s %v", token, exchange, ok)
	}

	if sym := m.getSymbol(2953217); sym != "TCS" {
		t.Errorf("Expected TCS, got %s", sym)
	}

	if _, _, ok := m.getToken("UNKNOWN"); ok {
		t.Error("Expected a miss for an unmapped symbol")
	}

	if m.size() != 2 {
		t.Errorf("Expected size 2, got %d", m.size())
	}
}

func TestStaticSourceLookupAlwaysFound(t *testing.T) {
	s := NewStaticSource()
	ctx := context.Background()

	info, err := s.Lookup(ctx, "RELIANCE", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !info.Found || info.Exchange != "NSE" || info.Token == 0 {
		t.Errorf("Unexpected token info %+v", info)
	}

	// Tokens are stable across calls.
	again, _ := s.Lookup(ctx, "RELIANCE", "")
	if again.Token != info.Token {
		t.Errorf("Token changed between lookups: %d vs %d", info.Token, again.Token)
	}
}

func TestStaticSourceQuoteWalks(t *testing.T) {
	s := NewStaticSource()
	ctx := context.Background()

	first, err := s.Quote(ctx, "RELIANCE", "NSE")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first <= 0 {
		t.Fatalf("Expected a positive price, got %f", first)
	}

	// Each step moves at most 0.5% from the previous price.
	prev := first
	for i := 0; i < 50; i++ {
		next, err := s.Quote(ctx, "RELIANCE", "NSE")
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(next-prev)/prev > 0.0051 {
			t.Fatalf("Step %d moved more than 0.5%%: %f -> %f", i, prev, next)
		}
		prev = next
	}
}

func TestFactorySelectsByMode(t *testing.T) {
	cfg := store.DefaultConfig()

	if _, ok := New(cfg).(*StaticSource); !ok {
		t.Error("Expected the static source in DRY_RUN")
	}

	cfg.Mode = "LIVE"
	if _, ok := New(cfg).(*KiteSource); !ok {
		t.Error("Expected the Kite source in LIVE")
	}
}
