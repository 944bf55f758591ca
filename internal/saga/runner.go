package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
)

// DefaultLeaseDuration bounds how long a worker may hold a saga's lease
// before another worker is allowed to reclaim it, per spec §5.1's
// lease-based mutual exclusion.
const DefaultLeaseDuration = 30 * time.Second

// leaseRenewInterval renews the lease well inside DefaultLeaseDuration so a
// slow step never loses its lease mid-execution.
const leaseRenewInterval = DefaultLeaseDuration / 3

// Run drives one saga forward until it reaches a terminal status, its
// current step's NextRetryAt is still in the future, or budget elapses —
// whichever comes first. Used both by the background worker's poll loop
// (large budget) and by the synchronous accept path (small budget, a best
// effort to return a conclusive pain.002 inline before falling back to the
// worker). Returns nil if another worker already holds the lease.
func (e *Engine) Run(ctx context.Context, tenantID, sagaID uuid.UUID, tenant *entities.TenantConfig, budget time.Duration) error {
	token := uuid.NewString()
	now := time.Now()
	acquired, err := e.sagas.AcquireLease(ctx, sagaID, token, DefaultLeaseDuration, now)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() {
		if err := e.sagas.ReleaseLease(context.Background(), sagaID, token); err != nil {
			e.log.Warn("saga: failed to release lease", zap.String("sagaId", sagaID.String()), zap.Error(err))
		}
	}()

	deadline := time.Now().Add(budget)
	lastRenew := time.Now()

	for {
		s, err := e.sagas.GetByID(ctx, tenantID, sagaID)
		if err != nil {
			return err
		}
		if s.Status == entities.SagaStatusCompleted || s.Status == entities.SagaStatusCompensated || s.Status == entities.SagaStatusFailed {
			return nil
		}
		if blocked, resumeAt := nextRetryGate(s); blocked {
			if resumeAt.After(deadline) {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Until(resumeAt)):
			}
		}
		if time.Now().After(deadline) {
			return nil
		}
		if time.Since(lastRenew) > leaseRenewInterval {
			if err := e.sagas.RenewLease(ctx, sagaID, token, DefaultLeaseDuration, time.Now()); err != nil {
				return err
			}
			lastRenew = time.Now()
		}
		if err := e.Advance(ctx, s, tenant); err != nil {
			return err
		}
	}
}

// nextRetryGate reports whether the saga's current step is waiting out a
// backoff delay, and when it becomes eligible to retry.
func nextRetryGate(s *entities.Saga) (bool, time.Time) {
	if s.CurrentStepIndex >= len(s.Steps) {
		return false, time.Time{}
	}
	st := s.Steps[s.CurrentStepIndex]
	if st.NextRetryAt == nil {
		return false, time.Time{}
	}
	if time.Now().After(*st.NextRetryAt) {
		return false, time.Time{}
	}
	return true, *st.NextRetryAt
}
