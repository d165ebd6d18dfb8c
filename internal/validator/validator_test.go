package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"signal-trader/internal/store"
	"signal-trader/internal/types"
)

type fakeMarketData struct {
	info    types.TokenInfo
	lookErr error
}

func (f *fakeMarketData) Lookup(ctx context.Context, symbol, exchangeHint string) (types.TokenInfo, error) {
	return f.info, f.lookErr
}

func (f *fakeMarketData) Quote(ctx context.Context, symbol, exchange string) (float64, error) {
	return 0, errors.New("not used")
}

func foundMD() *fakeMarketData {
	return &fakeMarketData{info: types.TokenInfo{Found: true, Exchange: "NSE", Token: 738561}}
}

func TestValidateNormalizes(t *testing.T) {
	v := New(store.DefaultConfig(), foundMD())

	sig, err := v.Validate(context.Background(), &types.CandidateSignal{
		Symbol:     " reliance ",
		Side:       types.SideBuy,
		EntryPrice: types.Ptr(2450.0),
		Confidence: 0.8,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if sig.Symbol != "RELIANCE" {
		t.Errorf("Expected normalized symbol RELIANCE, got %s", sig.Symbol)
	}
	if sig.Quantity != 1 {
		t.Errorf("Expected default quantity 1, got %d", sig.Quantity)
	}
	if sig.Exchange != "NSE" || sig.ProductType != "INTRADAY" {
		t.Errorf("Expected defaults applied, got %s/%s", sig.Exchange, sig.ProductType)
	}
	if !sig.TokenInfo.Found || sig.TokenInfo.Token != 738561 {
		t.Errorf("Expected token info carried over, got %+v", sig.TokenInfo)
	}
	if len(sig.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", sig.Warnings)
	}
}

func TestValidateMissingRequiredFields(t *testing.T) {
	v := New(store.DefaultConfig(), foundMD())
	ctx := context.Background()

	cases := []*types.CandidateSignal{
		nil,
		{Side: types.SideBuy},
		{Symbol: "RELIANCE"},
		{Symbol: "RELIANCE", Side: "HOLD"},
		{Symbol: "2450", Side: types.SideBuy},
	}
	for i, c := range cases {
		_, err := v.Validate(ctx, c)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
		if verr.Reason != ReasonMissingRequiredField {
			t.Errorf("case %d: expected %s, got %s", i, ReasonMissingRequiredField, verr.Reason)
		}
	}
}

func TestValidateLookupUnavailable(t *testing.T) {
	v := New(store.DefaultConfig(), &fakeMarketData{lookErr: errors.New("instrument master fetch failed")})

	_, err := v.Validate(context.Background(), &types.CandidateSignal{Symbol: "RELIANCE", Side: types.SideBuy})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Reason != ReasonLookupUnavailable {
		t.Errorf("Expected %s, got %s", ReasonLookupUnavailable, verr.Reason)
	}
}

func TestValidateLookupMissIsNotRejection(t *testing.T) {
	v := New(store.DefaultConfig(), &fakeMarketData{info: types.TokenInfo{Found: false, Warning: "symbol GARBAGE not found on NSE"}})

	sig, err := v.Validate(context.Background(), &types.CandidateSignal{Symbol: "GARBAGE", Side: types.SideSell})
	if err != nil {
		t.Fatalf("A lookup miss must not reject the signal, got %v", err)
	}
	if sig.TokenInfo.Found {
		t.Error("Expected token info to record the miss")
	}
}

func TestValidatePriceOrderingWarnings(t *testing.T) {
	v := New(store.DefaultConfig(), foundMD())
	ctx := context.Background()

	// BUY with target below entry and stop above entry: both inverted.
	sig, err := v.Validate(ctx, &types.CandidateSignal{
		Symbol:      "RELIANCE",
		Side:        types.SideBuy,
		EntryPrice:  types.Ptr(2450.0),
		TargetPrice: types.Ptr(2400.0),
		StopLoss:    types.Ptr(2480.0),
	})
	if err != nil {
		t.Fatalf("Inconsistent prices must warn, not reject: %v", err)
	}
	if len(sig.Warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %v", sig.Warnings)
	}

	// The same shape is fine for a SELL.
	sig, err = v.Validate(ctx, &types.CandidateSignal{
		Symbol:      "RELIANCE",
		Side:        types.SideSell,
		EntryPrice:  types.Ptr(2450.0),
		TargetPrice: types.Ptr(2400.0),
		StopLoss:    types.Ptr(2480.0),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sig.Warnings) != 0 {
		t.Errorf("Expected no warnings for a well-formed SELL, got %v", sig.Warnings)
	}
}

func TestValidateExtraTargetsWarn(t *testing.T) {
	v := New(store.DefaultConfig(), foundMD())

	sig, err := v.Validate(context.Background(), &types.CandidateSignal{
		Symbol:       "TATAMOTORS",
		Side:         types.SideBuy,
		TargetPrice:  types.Ptr(980.0),
		ExtraTargets: []float64{1000, 1050},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sig.Warnings) != 1 || !strings.Contains(sig.Warnings[0], "2 extra target") {
		t.Errorf("Expected extra-targets warning, got %v", sig.Warnings)
	}
}

func TestValidateQuantityOverride(t *testing.T) {
	v := New(store.DefaultConfig(), foundMD())

	sig, err := v.Validate(context.Background(), &types.CandidateSignal{
		Symbol:   "INFY",
		Side:     types.SideBuy,
		Quantity: types.Ptr(25),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sig.Quantity != 25 {
		t.Errorf("Expected quantity 25, got %d", sig.Quantity)
	}
}
