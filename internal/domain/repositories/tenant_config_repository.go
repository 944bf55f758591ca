package repositories

import (
	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// TenantConfigRepository is the system-of-record for tenant configuration.
// Callers should generally go through infrastructure/cache's versioned cache
// rather than this interface directly, to avoid a DB round trip per payment.
type TenantConfigRepository interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error)
	GetVersion(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// ClearingAdapterConfigRepository is the system-of-record for per-tenant
// clearing adapter configuration (endpoint, auth, circuit breaker, mappings).
type ClearingAdapterConfigRepository interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) (*entities.ClearingAdapterConfig, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entities.ClearingAdapterConfig, error)
	ListByRail(ctx context.Context, tenantID uuid.UUID, rail entities.ClearingRail) ([]*entities.ClearingAdapterConfig, error)
}

// RoutingRuleRepository is the system-of-record for explicit tenant routing
// rules evaluated by the routing resolver ahead of the default rail.
type RoutingRuleRepository interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entities.RoutingRule, error)
}

// AdapterCredentialRepository persists issued clearing-adapter credentials.
type AdapterCredentialRepository interface {
	Create(ctx context.Context, cred *entities.AdapterCredential) error
	GetByKeyHash(ctx context.Context, keyHash string) (*entities.AdapterCredential, error)
	ListByAdapter(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) ([]*entities.AdapterCredential, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

// UETRIndexRepository backs duplicate-submission detection: entries never
// expire, so a UETR seen once is rejected on resubmission even under a
// different idempotency key. It also reconciles an inbound clearing-rail
// callback, which carries only the UETR, back to the internal PaymentID.
type UETRIndexRepository interface {
	ReserveIfAbsent(ctx context.Context, uetr entities.UETR, paymentID uuid.UUID) (reserved bool, err error)
	Lookup(ctx context.Context, uetr entities.UETR) (paymentID uuid.UUID, found bool, err error)
}
