// Package usecases orchestrates the domain/saga/dispatch/eventbus layers
// into the four request-facing operations: Accept, Status, Cancel and
// Callback. Grounded on the teacher's usecases layer shape — thin
// coordinators over repositories and a UnitOfWork, business logic pushed
// down into entities/saga.
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
	"payorch.backend/pkg/metrics"
)

// defaultSyncWaitBudget bounds how long a Synchronous-mode Accept call
// blocks for a conclusive pain.002 before degrading to a PROC/pending
// response, when the payment type sets no SagaTimeoutMs of its own.
const defaultSyncWaitBudget = 8 * time.Second

// firstRunBudget bounds the inline saga advancement Accept kicks off
// immediately after creating the saga — generous enough to clear a
// same-rail happy path, short enough that a stuck saga falls back cleanly
// to the background worker's poll loop.
const firstRunBudget = 20 * time.Second

type AcceptUsecase struct {
	payments repositories.PaymentRepository
	sagas    repositories.SagaRepository
	tenants  repositories.TenantConfigRepository
	outbox   repositories.OutboxRepository
	uetrs    repositories.UETRIndexRepository
	uow      repositories.UnitOfWork
	engine   *saga.Engine
	waiters  WaiterRegistry
	log      *zap.Logger
}

// WaiterRegistry matches dispatch.WaiterRegistry's shape exactly, kept
// local so this package depends only on the method set it uses.
type WaiterRegistry interface {
	Register(paymentID uuid.UUID) <-chan struct{}
	Forget(paymentID uuid.UUID)
}

func NewAcceptUsecase(
	payments repositories.PaymentRepository,
	sagas repositories.SagaRepository,
	tenants repositories.TenantConfigRepository,
	outbox repositories.OutboxRepository,
	uetrs repositories.UETRIndexRepository,
	uow repositories.UnitOfWork,
	engine *saga.Engine,
	waiters WaiterRegistry,
	log *zap.Logger,
) *AcceptUsecase {
	return &AcceptUsecase{payments: payments, sagas: sagas, tenants: tenants, outbox: outbox, uetrs: uetrs, uow: uow, engine: engine, waiters: waiters, log: log}
}

// Accept validates, persists, and kicks off execution of a new payment, per
// spec §4.1. For an idempotency-key replay it returns the original result
// untouched rather than re-validating or re-executing anything.
func (u *AcceptUsecase) Accept(ctx context.Context, tc entities.TenantContext, input entities.AcceptPaymentInput, idempotencyKey string) (*entities.AcceptResult, error) {
	if err := input.Validate(); err != nil {
		return nil, domainerrors.Validation(err.Error(), err)
	}

	cfg, err := u.tenants.GetConfig(ctx, tc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("accept: load tenant config: %w", err)
	}
	if cfg.Status != entities.TenantStatusActive {
		return nil, domainerrors.TenantPolicy(fmt.Sprintf("tenant %s is not active", tc.TenantID), nil)
	}
	typeCfg, ok := cfg.PaymentType(input.PaymentType)
	if !ok {
		return nil, domainerrors.TenantPolicy(fmt.Sprintf("payment type %q is not configured for this tenant", input.PaymentType), nil)
	}

	if idempotencyKey != "" {
		if existing, err := u.payments.GetByIdempotencyKey(ctx, tc.TenantID, idempotencyKey); err == nil && existing != nil {
			return &entities.AcceptResult{PaymentID: existing.ID, UETR: existing.UETR, Status: existing.Status, Replayed: true}, nil
		}
	}

	amount, err := entities.NewMoney(input.Amount, input.Currency)
	if err != nil {
		return nil, domainerrors.Validation("invalid amount", err)
	}
	if typeCfg.MaxAmount.IsPositive() && amount.Compare(typeCfg.MaxAmount) > 0 {
		return nil, domainerrors.TenantPolicy(fmt.Sprintf("amount %s exceeds payment type limit %s", amount, typeCfg.MaxAmount), nil)
	}

	now := time.Now()
	payment := &entities.Payment{
		ID:              uuid.New(),
		TenantID:        tc.TenantID,
		BusinessUnitID:  tc.BusinessUnitID,
		CustomerID:      tc.CustomerID,
		UETR:            entities.NewUETR(),
		IdempotencyKey:  idempotencyKey,
		Amount:          amount,
		Debtor:          entities.Party{Account: input.DebtorAccount, Agent: input.DebtorAgent},
		Creditor:        entities.Party{Account: input.CreditorAccount, Agent: input.CreditorAgent},
		PaymentType:     input.PaymentType,
		LocalInstrument: input.LocalInstrument,
		Status:          entities.PaymentStatusInitiated,
		ConfigVersion:   cfg.Version,
		OriginalMsgID:   input.OriginalMsgID,
		EndToEndID:      input.EndToEndID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s := &entities.Saga{
		ID:           uuid.New(),
		PaymentID:    payment.ID,
		TenantID:     tc.TenantID,
		Status:       entities.SagaStatusRunning,
		SagaDeadline: now.Add(sagaDeadlineFor(typeCfg)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		reserved, err := u.uetrs.ReserveIfAbsent(txCtx, payment.UETR, payment.ID)
		if err != nil {
			return fmt.Errorf("reserve uetr: %w", err)
		}
		if !reserved {
			return domainerrors.Conflict(fmt.Sprintf("generated UETR %s already in use, resubmit", payment.UETR))
		}
		if err := u.payments.Create(txCtx, payment); err != nil {
			return err
		}
		if err := u.sagas.Create(txCtx, s); err != nil {
			return err
		}
		return u.outbox.Append(txCtx, &entities.OutboxRecord{
			ID:          uuid.New(),
			AggregateID: payment.ID,
			TenantID:    tc.TenantID,
			Topic:       entities.TopicPaymentInitiated,
			SchemaVer:   "v1",
			Payload:     []byte(fmt.Sprintf(`{"paymentId":%q,"uetr":%q}`, payment.ID, payment.UETR)),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("accept: persist payment and saga: %w", err)
	}
	metrics.RecordTenantPayment(tc.TenantID.String(), string(payment.Status))

	if typeCfg.ResponseMode == entities.ResponseModeSynchronous {
		return u.acceptSynchronous(ctx, payment, s, cfg, typeCfg)
	}
	go u.runInBackground(s.ID, tc.TenantID, payment.ID, cfg)
	return &entities.AcceptResult{PaymentID: payment.ID, UETR: payment.UETR, Status: payment.Status}, nil
}

func (u *AcceptUsecase) acceptSynchronous(ctx context.Context, payment *entities.Payment, s *entities.Saga, cfg *entities.TenantConfig, typeCfg entities.PaymentTypeConfig) (*entities.AcceptResult, error) {
	ch := u.waiters.Register(payment.ID)
	budget := defaultSyncWaitBudget
	if typeCfg.Timeouts.SagaTimeoutMs > 0 {
		budget = time.Duration(typeCfg.Timeouts.SagaTimeoutMs) * time.Millisecond
	}

	runCtx, cancel := context.WithTimeout(context.Background(), firstRunBudget)
	defer cancel()
	done := make(chan struct{})
	go func() {
		if err := u.engine.Run(runCtx, payment.TenantID, s.ID, cfg, firstRunBudget); err != nil {
			u.log.Warn("accept: inline saga run returned an error, leaving to worker", zap.String("sagaId", s.ID.String()), zap.Error(err))
		}
		close(done)
	}()

	select {
	case <-ch:
	case <-done:
	case <-time.After(budget):
		u.waiters.Forget(payment.ID)
	case <-ctx.Done():
		u.waiters.Forget(payment.ID)
		return nil, ctx.Err()
	}

	latest, err := u.payments.GetByID(context.Background(), payment.TenantID, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("accept: reload payment after sync wait: %w", err)
	}
	return &entities.AcceptResult{PaymentID: latest.ID, UETR: latest.UETR, Status: latest.Status}, nil
}

func (u *AcceptUsecase) runInBackground(sagaID, tenantID, paymentID uuid.UUID, cfg *entities.TenantConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), firstRunBudget)
	defer cancel()
	if err := u.engine.Run(ctx, tenantID, sagaID, cfg, firstRunBudget); err != nil {
		u.log.Warn("usecases: background saga run returned an error, leaving to worker poll",
			zap.String("sagaId", sagaID.String()), zap.String("paymentId", paymentID.String()), zap.Error(err))
	}
}

func sagaDeadlineFor(typeCfg entities.PaymentTypeConfig) time.Duration {
	if typeCfg.Timeouts.SagaTimeoutMs > 0 {
		return time.Duration(typeCfg.Timeouts.SagaTimeoutMs) * time.Millisecond
	}
	return 5 * time.Minute
}
