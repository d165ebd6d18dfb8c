package parser

import (
	"context"
	"time"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/store"
	"signal-trader/internal/types"
)

// Chain is the hybrid extractor: it prefers the semantic backend when one is
// configured and reachable, and falls back to the pattern extractor on any
// backend failure. The backend call is time-boxed independently of the rest
// of the pipeline so a slow model can never stall signal processing.
type Chain struct {
	semantic  interfaces.Extractor
	pattern   interfaces.Extractor
	aiTimeout time.Duration
}

var _ interfaces.Extractor = (*Chain)(nil)

// NewChain builds the extractor chain from configuration. With provider NONE
// (or a missing API key) only the pattern extractor runs.
func NewChain(cfg *store.Config) *Chain {
	c := &Chain{
		pattern:   NewPatternExtractor(cfg.Parser.PatternConfidence),
		aiTimeout: time.Duration(cfg.Parser.TimeoutSeconds) * time.Second,
	}

	if cfg.Parser.Provider == "GEMINI" {
		g := NewGeminiExtractor(cfg)
		if g.Enabled() {
			c.semantic = g
		}
	}

	return c
}

// NewChainWith wires explicit extractors, used by tests.
func NewChainWith(semantic, pattern interfaces.Extractor, aiTimeout time.Duration) *Chain {
	return &Chain{semantic: semantic, pattern: pattern, aiTimeout: aiTimeout}
}

// AIEnabled reports whether the semantic backend is active.
func (c *Chain) AIEnabled() bool { return c.semantic != nil }

// Extract runs the semantic backend first when available. A backend error is
// recovered locally by re-running the pattern extractor; it never reaches the
// caller. A NoSignal verdict from the semantic backend is trusted as-is.
func (c *Chain) Extract(ctx context.Context, text string) (*types.CandidateSignal, error) {
	if c.semantic != nil {
		aiCtx, cancel := context.WithTimeout(ctx, c.aiTimeout)
		sig, err := c.semantic.Extract(aiCtx, text)
		cancel()
		if err == nil {
			if sig != nil {
				sig.AIUsed = true
			}
			return sig, nil
		}
		logger.Warn(ctx, "Semantic parser unavailable, falling back to pattern extractor", "error", err)
	}

	sig, err := c.pattern.Extract(ctx, text)
	if err != nil || sig == nil {
		return nil, err
	}
	sig.AIUsed = false
	return sig, nil
}
