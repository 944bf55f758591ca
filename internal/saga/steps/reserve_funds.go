package steps

import (
	"context"

	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// ReserveFundsStep places a hold on the debtor account, keyed by PaymentId
// so a retried call (same attempt or a new one after a crash) is a no-op
// against the ledger. Compensation releases the same hold.
type ReserveFundsStep struct {
	ledger LedgerAdapter
}

func NewReserveFundsStep(ledger LedgerAdapter) *ReserveFundsStep {
	return &ReserveFundsStep{ledger: ledger}
}

func (s *ReserveFundsStep) Name() string { return saga.StepReserveFunds }

func (s *ReserveFundsStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if err := s.ledger.ReserveFunds(ctx, sc.Payment); err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	return saga.Succeeded(), nil
}

func (s *ReserveFundsStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if err := s.ledger.ReleaseFunds(ctx, sc.Payment); err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	return saga.Succeeded(), nil
}
