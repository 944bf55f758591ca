package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/saga"
	"payorch.backend/pkg/redis"
)

// callbackRunBudget bounds the inline advancement a clearing-rail callback
// triggers: long enough to clear PostLedger+Notify after a late settlement
// confirmation lands, short enough a slow handler doesn't hold the webhook
// connection open indefinitely.
const callbackRunBudget = 10 * time.Second

// callbackDedupeWindow is the minimum UETR dedupe window recommended for
// inbound clearing callbacks (spec §9): a rail that retries a webhook
// delivery (Bankserv's batch file landing more than once, a SWIFT gpi
// tracker redelivering after a timeout) must not re-drive an already
// re-driven saga.
const callbackDedupeWindow = 24 * time.Hour

// redisSetNX is overridden in tests to avoid a live Redis dependency.
var redisSetNX = redis.SetNX

// CallbackUsecase handles an inbound notification from a clearing rail
// (Bankserv's batch settlement file landing, a SWIFT gpi tracker webhook)
// that the AwaitClearingResult step would otherwise only learn about by
// polling. It resolves the rail-native UETR back to the internal payment,
// clears the step's backoff gate, and re-drives the saga immediately
// instead of waiting for the next scheduled retry.
type CallbackUsecase struct {
	sagas   repositories.SagaRepository
	tenants repositories.TenantConfigRepository
	uetrs   repositories.UETRIndexRepository
	engine  *saga.Engine
	log     *zap.Logger
}

func NewCallbackUsecase(sagas repositories.SagaRepository, tenants repositories.TenantConfigRepository, uetrs repositories.UETRIndexRepository, engine *saga.Engine, log *zap.Logger) *CallbackUsecase {
	return &CallbackUsecase{sagas: sagas, tenants: tenants, uetrs: uetrs, engine: engine, log: log}
}

// HandleClearingCallback resolves uetr to the payment it was assigned at
// acceptance and re-drives that payment's saga. A UETR seen again within
// callbackDedupeWindow is a no-op: the rail redelivered a webhook the
// saga already reacted to.
func (u *CallbackUsecase) HandleClearingCallback(ctx context.Context, tenantID uuid.UUID, uetr entities.UETR) error {
	dedupeKey := fmt.Sprintf("clearing:callback:seen:%s", uetr)
	fresh, err := redisSetNX(ctx, dedupeKey, "1", callbackDedupeWindow)
	if err != nil {
		return fmt.Errorf("callback: dedupe check: %w", err)
	}
	if !fresh {
		u.log.Info("callback: duplicate delivery within dedupe window, ignoring", zap.String("uetr", string(uetr)))
		return nil
	}

	paymentID, found, err := u.uetrs.Lookup(ctx, uetr)
	if err != nil {
		return fmt.Errorf("callback: resolve uetr: %w", err)
	}
	if !found {
		return domainerrors.NotFound(fmt.Sprintf("no payment found for uetr %s", uetr))
	}

	s, err := u.sagas.GetByPaymentID(ctx, tenantID, paymentID)
	if err != nil {
		return domainerrors.NotFound(fmt.Sprintf("no saga found for payment %s", paymentID))
	}
	if s.Status != entities.SagaStatusRunning {
		u.log.Info("callback: saga is no longer running, ignoring", zap.String("sagaId", s.ID.String()), zap.String("status", string(s.Status)))
		return nil
	}
	if s.CurrentStepIndex < len(saga.DefaultPlan) {
		currentName := saga.DefaultPlan[s.CurrentStepIndex]
		for _, st := range s.Steps {
			if st.Name != currentName || st.NextRetryAt == nil {
				continue
			}
			st.NextRetryAt = nil
			if err := u.sagas.UpsertStepState(ctx, &st); err != nil {
				return fmt.Errorf("callback: clear backoff gate: %w", err)
			}
			break
		}
	}

	cfg, err := u.tenants.GetConfig(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("callback: load tenant config: %w", err)
	}
	return u.engine.Run(ctx, tenantID, s.ID, cfg, callbackRunBudget)
}
