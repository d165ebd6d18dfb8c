package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Simulator is the orchestrator entry point: extraction, validation and the
// optional paper execution of one raw message. It never returns an error;
// every outcome, including failures, is encoded in the result's status and
// diagnostic trail.
type Simulator interface {
	Simulate(ctx context.Context, msg types.RawMessage, executePaper bool) types.SimulationResult
}
