// Package clearing implements the Clearing Adapter Framework: a per-adapter
// middleware chain (rate limit, circuit breaker, retry, timeout) in front of
// a pluggable set of rail clients, one per entities.ClearingRail.
package clearing

import (
	"context"

	"payorch.backend/internal/domain/entities"
)

// RailClient is the narrow contract a concrete clearing rail (Bankserv, RTC,
// PayShap, SAMOS, SWIFT) implements. The Framework wraps every call in the
// shared resilience middleware so no rail client needs its own retry or
// circuit-breaking logic.
type RailClient interface {
	Rail() entities.ClearingRail

	// Submit sends the payment instruction to the rail and returns whatever
	// acknowledgement the rail gives synchronously (may or may not be final).
	Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error)

	// Poll checks an asynchronous rail for the final result of a
	// previously submitted instruction; synchronous rails implement this as
	// a no-op returning the same outcome Submit already gave.
	Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error)
}
