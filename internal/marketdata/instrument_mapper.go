package marketdata

import (
	"sync"
)

// instrumentMapper manages the mapping between trading symbols and Kite
// instrument tokens, plus the exchange each symbol resolved on.
type instrumentMapper struct {
	symbolToToken  map[string]uint32
	tokenToSymbol  map[uint32]string
	symbolExchange map[string]string
	mu             sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken:  make(map[string]uint32),
		tokenToSymbol:  make(map[uint32]string),
		symbolExchange: make(map[string]string),
	}
}

func (im *instrumentMapper) addMapping(symbol, exchange string, token uint32) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[symbol] = token
	im.tokenToSymbol[token] = symbol
	im.symbolExchange[symbol] = exchange
}

func (im *instrumentMapper) getToken(symbol string) (uint32, string, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[symbol]
	return token, im.symbolExchange[symbol], exists
}

func (im *instrumentMapper) getSymbol(token uint32) string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.tokenToSymbol[token]
}

func (im *instrumentMapper) size() int {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return len(im.symbolToToken)
}
