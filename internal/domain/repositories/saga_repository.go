package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// SagaRepository persists the saga instance and its step states. Lease
// acquisition is a compare-and-swap on (LockToken, LeaseDeadline) so two
// worker processes can never both believe they hold the same saga.
type SagaRepository interface {
	Create(ctx context.Context, saga *entities.Saga) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Saga, error)
	GetByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Saga, error)

	// AcquireLease atomically claims an unleased or lease-expired saga,
	// setting a fresh LockToken and LeaseDeadline. Returns false if another
	// worker holds a live lease.
	AcquireLease(ctx context.Context, sagaID uuid.UUID, newToken string, leaseDuration time.Duration, now time.Time) (bool, error)
	RenewLease(ctx context.Context, sagaID uuid.UUID, token string, leaseDuration time.Duration, now time.Time) error
	ReleaseLease(ctx context.Context, sagaID uuid.UUID, token string) error

	UpdateStatus(ctx context.Context, sagaID uuid.UUID, status entities.SagaStatus, failureReason string) error
	AdvanceStep(ctx context.Context, sagaID uuid.UUID, stepIndex int) error
	MarkCancelRequested(ctx context.Context, tenantID, sagaID uuid.UUID) error
	MarkDeadLettered(ctx context.Context, sagaID uuid.UUID) error

	UpsertStepState(ctx context.Context, step *entities.StepState) error

	// ListDueForRetry returns sagas whose next step has a NextRetryAt in the
	// past and that are not currently lease-held, for the worker poll loop.
	ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.Saga, error)
	ListDeadLettered(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Saga, error)
}
