package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// MarketData is the symbol-lookup and quote collaborator. Lookup misses are
// reported inside TokenInfo, not as errors; a hard backend failure is an
// error. Quote returns marketdata.ErrQuoteUnavailable when no price can be
// resolved within the configured bounds.
type MarketData interface {
	Lookup(ctx context.Context, symbol, exchangeHint string) (types.TokenInfo, error)
	Quote(ctx context.Context, symbol, exchange string) (float64, error)
}
