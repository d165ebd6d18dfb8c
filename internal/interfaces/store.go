package interfaces

import (
	"context"

	"signal-trader/internal/types"
)

// Store receives finished entities after each mutating operation. Durability
// is the store's problem; callers log a failed save and move on.
type Store interface {
	SavePosition(ctx context.Context, p types.VirtualPosition) error
	SaveBalance(ctx context.Context, b types.BalanceSummary) error
	SaveSimulation(ctx context.Context, r types.SimulationResult) error
}
