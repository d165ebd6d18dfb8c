package marketdataobs

import (
	"context"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

// observableMarketData wraps a MarketData source with logging & tracing
type observableMarketData struct {
	inner interfaces.MarketData
}

// Compile-time interface check
var _ interfaces.MarketData = (*observableMarketData)(nil)

// Wrap wraps a market data source with observability middleware
func Wrap(inner interfaces.MarketData) interfaces.MarketData {
	return &observableMarketData{inner: inner}
}

func (om *observableMarketData) Lookup(ctx context.Context, symbol, exchange string) (types.TokenInfo, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Lookup")
	defer span.End()

	info, err := om.inner.Lookup(ctx, symbol, exchange)
	if err != nil {
		logger.ErrorWithErr(ctx, "Instrument lookup failed", err, "symbol", symbol, "exchange", exchange)
		return info, err
	}
	if !info.Found {
		logger.Warn(ctx, "Instrument not found", "symbol", symbol, "exchange", exchange)
	}
	return info, nil
}

func (om *observableMarketData) Quote(ctx context.Context, symbol, exchange string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.Quote")
	defer span.End()

	price, err := om.inner.Quote(ctx, symbol, exchange)
	if err != nil {
		logger.Warn(ctx, "Quote unavailable", "symbol", symbol, "exchange", exchange, "error", err.Error())
		return 0, err
	}

	logger.Debug(ctx, "Quote fetched", "symbol", symbol, "price", price)
	return price, nil
}
