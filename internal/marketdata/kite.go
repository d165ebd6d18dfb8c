package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/types"
)

// ErrQuoteUnavailable means no price could be resolved for a symbol. It is a
// degrade condition for mark-to-market and a transient rejection for market
// orders.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Params configures the Kite-backed market data source.
type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	LiveTicker  bool
}

// KiteSource resolves instrument tokens and quotes through the Zerodha Kite
// Connect API, optionally keeping a live last-price cache over the Kite
// WebSocket ticker.
type KiteSource struct {
	kc     *kiteconnect.Client
	p      Params
	mapper *instrumentMapper
	ticker *tickerCache

	loadOnce sync.Once
	loadErr  error
}

var _ interfaces.MarketData = (*KiteSource)(nil)

// NewKiteSource creates a Kite market data source. The instrument master is
// fetched lazily on the first lookup.
func NewKiteSource(p Params) *KiteSource {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)

	s := &KiteSource{
		kc:     kc,
		p:      p,
		mapper: newInstrumentMapper(),
	}
	if p.LiveTicker {
		s.ticker = newTickerCache(p.APIKey, p.AccessToken, s.mapper)
	}
	return s
}

// Start brings up the live ticker when configured.
func (s *KiteSource) Start(ctx context.Context) error {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.start(ctx)
}

// Stop tears down the live ticker.
func (s *KiteSource) Stop(ctx context.Context) {
	if s.ticker != nil {
		s.ticker.stop(ctx)
	}
}

// Lookup resolves a symbol to its instrument token. A miss is reported in
// TokenInfo with a warning, not as an error; only a failure to reach the
// instrument master is an error.
func (s *KiteSource) Lookup(ctx context.Context, symbol, exchangeHint string) (types.TokenInfo, error) {
	if err := s.ensureInstruments(ctx, exchangeHint); err != nil {
		return types.TokenInfo{}, err
	}

	token, exchange, ok := s.mapper.getToken(symbol)
	if !ok {
		return types.TokenInfo{
			Found:   false,
			Warning: fmt.Sprintf("symbol %s not found on %s", symbol, s.exchangeOr(exchangeHint)),
		}, nil
	}

	if s.ticker != nil {
		s.ticker.watch(ctx, symbol, token)
	}

	return types.TokenInfo{Found: true, Exchange: exchange, Token: token}, nil
}

// Quote returns the last traded price for a symbol, preferring the live
// ticker cache and falling back to the LTP REST endpoint.
func (s *KiteSource) Quote(ctx context.Context, symbol, exchange string) (float64, error) {
	if s.ticker != nil {
		if price, ok := s.ticker.lastPrice(symbol); ok {
			return price, nil
		}
	}

	instrument := fmt.Sprintf("%s:%s", s.exchangeOr(exchange), symbol)
	ltp, err := s.kc.GetLTP(instrument)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
	}
	q, ok := ltp[instrument]
	if !ok || q.LastPrice <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}
	return q.LastPrice, nil
}

// ensureInstruments downloads the instrument master once per process.
func (s *KiteSource) ensureInstruments(ctx context.Context, exchangeHint string) error {
	s.loadOnce.Do(func() {
		exchange := s.exchangeOr(exchangeHint)
		instruments, err := s.kc.GetInstrumentsByExchange(exchange)
		if err != nil {
			s.loadErr = fmt.Errorf("instrument master fetch failed for %s: %w", exchange, err)
			return
		}
		for _, ins := range instruments {
			s.mapper.addMapping(ins.Tradingsymbol, ins.Exchange, uint32(ins.InstrumentToken))
		}
		logger.Info(ctx, "Instrument master loaded", "exchange", exchange, "count", s.mapper.size())
	})
	return s.loadErr
}

func (s *KiteSource) exchangeOr(hint string) string {
	if hint != "" {
		return hint
	}
	return s.p.Exchange
}
