package interfaces

import "signal-trader/internal/types"

// Notifier broadcasts ledger and simulation events to the presentation
// layer. Delivery is best-effort, at most once per connected client.
type Notifier interface {
	Publish(event types.Event)
}
