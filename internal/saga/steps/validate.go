package steps

import (
	"context"

	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// ValidateStep applies business rules (amount limits, tenant status,
// known payment type) beyond the structural checks AcceptPaymentInput
// already performed. No side effects, so compensation is a no-op.
type ValidateStep struct{}

func NewValidateStep() *ValidateStep { return &ValidateStep{} }

func (s *ValidateStep) Name() string { return saga.StepValidate }

func (s *ValidateStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if sc.Tenant.Status != entities.TenantStatusActive {
		err := domainerrors.TenantPolicy("tenant is not active", nil)
		return saga.Terminal(err.Message, err.ReasonCode), err
	}
	cfg, ok := sc.Tenant.PaymentType(sc.Payment.PaymentType)
	if !ok {
		err := domainerrors.TenantPolicy("unknown payment type for tenant", nil)
		return saga.Terminal(err.Message, err.ReasonCode), err
	}
	if cfg.MaxAmount.IsPositive() && sc.Payment.Amount.CurrencyEquals(cfg.MaxAmount) && sc.Payment.Amount.Compare(cfg.MaxAmount) > 0 {
		err := domainerrors.TenantPolicy("amount exceeds configured maximum for payment type", nil)
		return saga.Terminal(err.Message, err.ReasonCode), err
	}
	return saga.Succeeded(), nil
}

func (s *ValidateStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	return saga.Skipped("validate has no side effects"), nil
}
