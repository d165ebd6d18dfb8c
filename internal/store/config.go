package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode"`        // DRY_RUN or LIVE market data
	PollSeconds int    `yaml:"poll_seconds"`

	Defaults struct {
		Exchange    string `yaml:"exchange"`
		ProductType string `yaml:"product_type"`
		Quantity    int    `yaml:"quantity"`
	} `yaml:"defaults"`

	Parser struct {
		Provider       string  `yaml:"provider"` // GEMINI or NONE (pattern only)
		Model          string  `yaml:"model"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		// Confidence reported by the pattern extractor; it performs no
		// statistical reasoning so this is a fixed constant, not a probability.
		PatternConfidence float64 `yaml:"pattern_confidence"`
	} `yaml:"parser"`

	Paper struct {
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"paper"`

	MarketData struct {
		QuoteTimeoutSeconds int  `yaml:"quote_timeout_seconds"`
		LiveTicker          bool `yaml:"live_ticker"`
	} `yaml:"market_data"`

	News struct {
		Enabled             bool    `yaml:"enabled"`
		MaxHeadlines        int     `yaml:"max_headlines"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		TimeoutSeconds      int     `yaml:"timeout_seconds"`
	} `yaml:"news"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Notify struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"notify"`

	Feed struct {
		Path string `yaml:"path"`
	} `yaml:"feed"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Parser.Provider != "GEMINI" && c.Parser.Provider != "NONE" {
		return fmt.Errorf("parser.provider must be 'GEMINI' or 'NONE', got '%s'", c.Parser.Provider)
	}
	if c.Defaults.Quantity <= 0 {
		return fmt.Errorf("defaults.quantity must be positive, got %d", c.Defaults.Quantity)
	}
	if c.Paper.InitialBalance <= 0 {
		return fmt.Errorf("paper.initial_balance must be positive, got %.2f", c.Paper.InitialBalance)
	}
	if c.Parser.PatternConfidence < 0 || c.Parser.PatternConfidence > 1 {
		return fmt.Errorf("parser.pattern_confidence must be in [0,1], got %.2f", c.Parser.PatternConfidence)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// DefaultConfig returns a config with all defaults applied, used by tests
// and as the fallback when no config file exists.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 15
	}
	if c.Defaults.Exchange == "" {
		c.Defaults.Exchange = "NSE"
	}
	if c.Defaults.ProductType == "" {
		c.Defaults.ProductType = "INTRADAY"
	}
	if c.Defaults.Quantity == 0 {
		c.Defaults.Quantity = 1
	}
	if c.Parser.Provider == "" {
		c.Parser.Provider = "NONE"
	}
	if c.Parser.Model == "" {
		c.Parser.Model = "gemini-2.0-flash"
	}
	if c.Parser.TimeoutSeconds == 0 {
		c.Parser.TimeoutSeconds = 10
	}
	if c.Parser.MaxTokens == 0 {
		c.Parser.MaxTokens = 500
	}
	if c.Parser.PatternConfidence == 0 {
		c.Parser.PatternConfidence = 0.6
	}
	if c.Paper.InitialBalance == 0 {
		c.Paper.InitialBalance = 100000
	}
	if c.MarketData.QuoteTimeoutSeconds == 0 {
		c.MarketData.QuoteTimeoutSeconds = 5
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 5
	}
	if c.News.ConfidenceThreshold == 0 {
		c.News.ConfidenceThreshold = 0.7
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 8
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/signal-trader.db"
	}
	if c.Notify.ListenAddr == "" {
		c.Notify.ListenAddr = ":8089"
	}
	if c.Feed.Path == "" {
		c.Feed.Path = "messages.jsonl"
	}
}
