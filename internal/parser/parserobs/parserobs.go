package parserobs

import (
	"context"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

// observableExtractor wraps an Extractor with logging & tracing
type observableExtractor struct {
	inner interfaces.Extractor
}

// Compile-time interface check
var _ interfaces.Extractor = (*observableExtractor)(nil)

// Wrap wraps an extractor with observability middleware
func Wrap(inner interfaces.Extractor) interfaces.Extractor {
	return &observableExtractor{inner: inner}
}

func (oe *observableExtractor) Extract(ctx context.Context, text string) (*types.CandidateSignal, error) {
	ctx, span := trace.StartSpan(ctx, "extractor.Extract")
	defer span.End()

	logger.Debug(ctx, "Extracting signal", "text_len", len(text))

	sig, err := oe.inner.Extract(ctx, text)
	if err != nil {
		logger.ErrorWithErr(ctx, "Signal extraction failed", err)
		return nil, err
	}

	if sig == nil {
		logger.Debug(ctx, "No trade intent detected")
		return nil, nil
	}

	logger.Signal(ctx, sig.Symbol, string(sig.Side), sig.Confidence, sig.AIUsed)
	return sig, nil
}
