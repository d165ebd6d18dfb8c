package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/store"
	"signal-trader/internal/types"
)

// Reason codes for validation failures.
const (
	ReasonMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ReasonLookupUnavailable    = "LOOKUP_UNAVAILABLE"
)

// ValidationError is a hard rejection of a candidate signal. Price-ordering
// inconsistencies and lookup misses are warnings on the signal, not errors:
// upstream messages are noisy and the job here is to surface the problem for
// human review, not to discard a possibly valid idea.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Reason, e.Detail)
}

var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,15}$`)

// Validator normalizes candidate signals into canonical trade signals,
// enriching them with the instrument-token lookup.
type Validator struct {
	cfg        *store.Config
	marketData interfaces.MarketData
}

// New creates a validator using the given defaults and lookup collaborator.
func New(cfg *store.Config, md interfaces.MarketData) *Validator {
	return &Validator{cfg: cfg, marketData: md}
}

// Validate turns a candidate into a canonical TradeSignal or rejects it with
// a ValidationError. Apart from the lookup call it is pure and synchronous.
func (v *Validator) Validate(ctx context.Context, c *types.CandidateSignal) (*types.TradeSignal, error) {
	if c == nil || strings.TrimSpace(c.Symbol) == "" {
		return nil, &ValidationError{Reason: ReasonMissingRequiredField, Detail: "symbol is empty"}
	}
	if c.Side != types.SideBuy && c.Side != types.SideSell {
		return nil, &ValidationError{Reason: ReasonMissingRequiredField, Detail: fmt.Sprintf("side %q is not resolvable", c.Side)}
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Symbol))
	if !symbolRe.MatchString(symbol) {
		return nil, &ValidationError{Reason: ReasonMissingRequiredField, Detail: fmt.Sprintf("symbol %q is not a valid instrument token", symbol)}
	}

	sig := &types.TradeSignal{
		Symbol:      symbol,
		Side:        c.Side,
		EntryPrice:  c.EntryPrice,
		TargetPrice: c.TargetPrice,
		StopLoss:    c.StopLoss,
		Quantity:    v.cfg.Defaults.Quantity,
		Exchange:    v.cfg.Defaults.Exchange,
		ProductType: v.cfg.Defaults.ProductType,
		Confidence:  c.Confidence,
		Reasoning:   c.Reasoning,
		AIUsed:      c.AIUsed,
	}
	if c.Quantity != nil && *c.Quantity > 0 {
		sig.Quantity = *c.Quantity
	}
	if len(c.ExtraTargets) > 0 {
		sig.Warnings = append(sig.Warnings,
			fmt.Sprintf("message carried %d extra target levels; only the first target is tracked", len(c.ExtraTargets)))
	}

	info, err := v.marketData.Lookup(ctx, symbol, sig.Exchange)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonLookupUnavailable, Detail: err.Error()}
	}
	sig.TokenInfo = info
	if info.Found && info.Exchange != "" {
		sig.Exchange = info.Exchange
	}
	if !info.Found {
		logger.Warn(ctx, "Symbol not found in instrument lookup", "symbol", symbol, "exchange", sig.Exchange)
	}

	sig.Warnings = append(sig.Warnings, priceOrderingWarnings(sig)...)

	return sig, nil
}

// priceOrderingWarnings checks the BUY invariant stop < entry < target (and
// its inverse for SELL) for whichever of the three prices are present.
func priceOrderingWarnings(sig *types.TradeSignal) []string {
	var warnings []string

	entry, target, stop := sig.EntryPrice, sig.TargetPrice, sig.StopLoss

	check := func(cond bool, format string, args ...any) {
		if cond {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		}
	}

	switch sig.Side {
	case types.SideBuy:
		if entry != nil && target != nil {
			check(*target <= *entry, "target %.2f is not above entry %.2f for a BUY", *target, *entry)
		}
		if entry != nil && stop != nil {
			check(*stop >= *entry, "stop-loss %.2f is not below entry %.2f for a BUY", *stop, *entry)
		}
		if entry == nil && target != nil && stop != nil {
			check(*stop >= *target, "stop-loss %.2f is not below target %.2f for a BUY", *stop, *target)
		}
	case types.SideSell:
		if entry != nil && target != nil {
			check(*target >= *entry, "target %.2f is not below entry %.2f for a SELL", *target, *entry)
		}
		if entry != nil && stop != nil {
			check(*stop <= *entry, "stop-loss %.2f is not above entry %.2f for a SELL", *stop, *entry)
		}
		if entry == nil && target != nil && stop != nil {
			check(*stop <= *target, "stop-loss %.2f is not above target %.2f for a SELL", *stop, *target)
		}
	}

	return warnings
}
