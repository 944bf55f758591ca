package repositories

import (
	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// PaymentRepository defines payment aggregate persistence. Lookups and
// updates take the tenant ID explicitly and filter on it; Create uses the
// payment's own TenantID, and GetByUETR is not tenant-scoped.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Payment, error)
	GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*entities.Payment, error)
	GetByUETR(ctx context.Context, uetr entities.UETR) (*entities.Payment, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status entities.PaymentStatus, reason entities.ReasonCode) error
	SetClearingRail(ctx context.Context, tenantID, id uuid.UUID, rail entities.ClearingRail) error
	SetTrackingRef(ctx context.Context, tenantID, id uuid.UUID, trackingRef string) error
	SetRoutingCandidates(ctx context.Context, tenantID, id uuid.UUID, candidates []entities.ClearingAdapterID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error)
}
