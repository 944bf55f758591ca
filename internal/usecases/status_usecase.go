package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
)

// StatusUsecase answers pain.002 status lookups (GET status, and the
// polling fallback for an Asynchronous/KafkaTopic payment that hasn't
// landed yet).
type StatusUsecase struct {
	payments repositories.PaymentRepository
}

func NewStatusUsecase(payments repositories.PaymentRepository) *StatusUsecase {
	return &StatusUsecase{payments: payments}
}

func (u *StatusUsecase) GetByID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Payment, error) {
	p, err := u.payments.GetByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, domainerrors.NotFound(fmt.Sprintf("payment %s not found", paymentID))
	}
	return p, nil
}

func (u *StatusUsecase) GetByUETR(ctx context.Context, uetr entities.UETR) (*entities.Payment, error) {
	p, err := u.payments.GetByUETR(ctx, uetr)
	if err != nil {
		return nil, domainerrors.NotFound(fmt.Sprintf("payment with UETR %s not found", uetr))
	}
	return p, nil
}
