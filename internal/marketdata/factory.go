package marketdata

import (
	"os"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/store"
)

// New selects the market data source for the configured mode. DRY_RUN uses
// the static source; LIVE talks to Kite with credentials from the
// environment.
func New(cfg *store.Config) interfaces.MarketData {
	if cfg.Mode != "LIVE" {
		return NewStaticSource()
	}
	return NewKiteSource(Params{
		APIKey:      os.Getenv("KITE_API_KEY"),
		AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		Exchange:    cfg.Defaults.Exchange,
		LiveTicker:  cfg.MarketData.LiveTicker,
	})
}
