package marketdata

import (
	"context"
	"sync"

	"github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"

	"signal-trader/internal/logger"
)

// tickerCache maintains a last-price cache over the Kite WebSocket ticker so
// mark-to-market sweeps do not hammer the REST quote endpoint.
type tickerCache struct {
	ticker      *kiteticker.Ticker
	apiKey      string
	accessToken string
	mapper      *instrumentMapper

	mu         sync.RWMutex
	lastPrices map[string]float64
	subscribed map[uint32]bool
	running    bool
}

func newTickerCache(apiKey, accessToken string, mapper *instrumentMapper) *tickerCache {
	return &tickerCache{
		apiKey:      apiKey,
		accessToken: accessToken,
		mapper:      mapper,
		lastPrices:  make(map[string]float64),
		subscribed:  make(map[uint32]bool),
	}
}

// start connects the WebSocket ticker.
func (tc *tickerCache) start(ctx context.Context) error {
	tc.ticker = kiteticker.New(tc.apiKey, tc.accessToken)

	tc.ticker.OnConnect(tc.onConnect)
	tc.ticker.OnError(tc.onError)
	tc.ticker.OnClose(tc.onClose)
	tc.ticker.OnTick(tc.onTick)

	tc.mu.Lock()
	tc.running = true
	tc.mu.Unlock()

	go func() {
		logger.Info(ctx, "Starting Kite WebSocket ticker")
		tc.ticker.Serve()
	}()

	return nil
}

// stop closes the WebSocket connection.
func (tc *tickerCache) stop(ctx context.Context) {
	tc.mu.Lock()
	running := tc.running
	tc.running = false
	tc.mu.Unlock()

	if running && tc.ticker != nil {
		logger.Info(ctx, "Stopping Kite WebSocket ticker")
		tc.ticker.Stop()
	}
}

// watch subscribes a resolved symbol for live price streaming. Duplicate
// subscriptions are skipped.
func (tc *tickerCache) watch(ctx context.Context, symbol string, token uint32) {
	tc.mu.Lock()
	if !tc.running || tc.subscribed[token] {
		tc.mu.Unlock()
		return
	}
	tc.subscribed[token] = true
	tc.mu.Unlock()

	if err := tc.ticker.Subscribe([]uint32{token}); err != nil {
		logger.Warn(ctx, "Ticker subscribe failed", "symbol", symbol, "error", err)
		return
	}
	if err := tc.ticker.SetMode(kiteticker.ModeLTP, []uint32{token}); err != nil {
		logger.Warn(ctx, "Ticker mode set failed", "symbol", symbol, "error", err)
	}
}

// lastPrice returns the cached live price for a symbol.
func (tc *tickerCache) lastPrice(symbol string) (float64, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	price, ok := tc.lastPrices[symbol]
	return price, ok && price > 0
}

// Event handlers

func (tc *tickerCache) onConnect() {
	logger.Info(context.Background(), "Kite WebSocket connected")
}

func (tc *tickerCache) onError(err error) {
	logger.ErrorWithErr(context.Background(), "Kite WebSocket error", err)
}

func (tc *tickerCache) onClose(code int, reason string) {
	logger.Warn(context.Background(), "Kite WebSocket closed", "code", code, "reason", reason)
}

func (tc *tickerCache) onTick(tick models.Tick) {
	symbol := tc.mapper.getSymbol(tick.InstrumentToken)
	if symbol == "" {
		return
	}

	tc.mu.Lock()
	tc.lastPrices[symbol] = tick.LastPrice
	tc.mu.Unlock()
}
