// Package steps implements the eight saga.Step stages. Each step depends
// only on a small port interface (FraudAdapter, LedgerAdapter,
// RoutingResolver, ClearingFramework, Dispatcher) so the saga engine can be
// tested with fakes without pulling in HTTP, Redis or Kafka.
package steps

import (
	"context"

	"payorch.backend/internal/domain/entities"
)

// FraudAdapter scores a payment for fraud/risk.
type FraudAdapter interface {
	Score(ctx context.Context, p *entities.Payment) (score float64, err error)
}

// LedgerAdapter performs the three idempotent ledger operations a payment's
// lifecycle requires.
type LedgerAdapter interface {
	ReserveFunds(ctx context.Context, p *entities.Payment) error
	ReleaseFunds(ctx context.Context, p *entities.Payment) error
	PostLedger(ctx context.Context, p *entities.Payment) error
}

// RoutingResolver selects an ordered list of candidate clearing adapters
// for a payment.
type RoutingResolver interface {
	Resolve(ctx context.Context, tenant *entities.TenantConfig, p *entities.Payment) ([]entities.ClearingAdapterID, error)
}

// ClearingFramework submits a payment to a specific clearing adapter and
// awaits (or polls for) its result.
type ClearingFramework interface {
	Submit(ctx context.Context, adapterID entities.ClearingAdapterID, p *entities.Payment) (entities.ClearingOutcome, error)
	AwaitResult(ctx context.Context, adapterID entities.ClearingAdapterID, p *entities.Payment) (entities.ClearingOutcome, bool, error)
	Capabilities(ctx context.Context, adapterID entities.ClearingAdapterID) (entities.AdapterCapabilities, error)
}

// Dispatcher delivers the response for a payment per its configured
// response mode.
type Dispatcher interface {
	Dispatch(ctx context.Context, p *entities.Payment) error
}
