package marketdata

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/types"
)

// StaticSource is the DRY_RUN market data source: every symbol resolves, and
// quotes are a random walk around a per-symbol base price so auto-exit logic
// can be exercised without a broker session.
type StaticSource struct {
	mu     sync.Mutex
	prices map[string]float64
}

var _ interfaces.MarketData = (*StaticSource)(nil)

func NewStaticSource() *StaticSource {
	return &StaticSource{prices: make(map[string]float64)}
}

// Lookup always succeeds with a synthetic token derived from the symbol.
func (s *StaticSource) Lookup(ctx context.Context, symbol, exchangeHint string) (types.TokenInfo, error) {
	exchange := exchangeHint
	if exchange == "" {
		exchange = "NSE"
	}
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return types.TokenInfo{Found: true, Exchange: exchange, Token: h.Sum32()}, nil
}

// Quote walks the previous price by up to ±0.5%.
func (s *StaticSource) Quote(ctx context.Context, symbol, exchange string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok {
		// Base price is derived from the symbol so runs are comparable.
		h := fnv.New32a()
		h.Write([]byte(symbol))
		price = 100 + float64(h.Sum32()%4900)
	}
	price *= 1 + (rand.Float64()-0.5)/100
	s.prices[symbol] = price
	return price, nil
}
