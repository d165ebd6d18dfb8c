package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Extractor turns free-form chat text into a candidate trade signal.
// A (nil, nil) return means the text carries no detectable trade intent;
// that is a normal outcome, not an error.
type Extractor interface {
	Extract(ctx context.Context, text string) (*types.CandidateSignal, error)
}
