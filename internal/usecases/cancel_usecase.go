package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
)

// CancelUsecase handles an incoming camt.055 cancellation request. It only
// flags intent (Saga.CancelRequested); the saga engine itself decides, at
// the next step boundary, whether the payment is still cancellable.
type CancelUsecase struct {
	payments repositories.PaymentRepository
	sagas    repositories.SagaRepository
}

func NewCancelUsecase(payments repositories.PaymentRepository, sagas repositories.SagaRepository) *CancelUsecase {
	return &CancelUsecase{payments: payments, sagas: sagas}
}

func (u *CancelUsecase) Cancel(ctx context.Context, tenantID, paymentID uuid.UUID) error {
	payment, err := u.payments.GetByID(ctx, tenantID, paymentID)
	if err != nil {
		return domainerrors.NotFound(fmt.Sprintf("payment %s not found", paymentID))
	}
	if payment.Status.IsTerminal() {
		return domainerrors.Conflict(fmt.Sprintf("payment %s is already in terminal status %s", paymentID, payment.Status))
	}

	s, err := u.sagas.GetByPaymentID(ctx, tenantID, paymentID)
	if err != nil {
		return domainerrors.NotFound(fmt.Sprintf("no saga found for payment %s", paymentID))
	}
	if s.Status != entities.SagaStatusRunning {
		return domainerrors.Conflict(fmt.Sprintf("saga for payment %s is no longer cancellable (status %s)", paymentID, s.Status))
	}
	return u.sagas.MarkCancelRequested(ctx, tenantID, s.ID)
}
