package steps

import (
	"context"

	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// PostLedgerStep finalizes the debit/credit on success, replacing the hold
// ReserveFunds placed. Compensation posts a reversing entry.
type PostLedgerStep struct {
	ledger LedgerAdapter
}

func NewPostLedgerStep(ledger LedgerAdapter) *PostLedgerStep {
	return &PostLedgerStep{ledger: ledger}
}

func (s *PostLedgerStep) Name() string { return saga.StepPostLedger }

func (s *PostLedgerStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if err := s.ledger.PostLedger(ctx, sc.Payment); err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	return saga.Succeeded(), nil
}

func (s *PostLedgerStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if err := s.ledger.ReleaseFunds(ctx, sc.Payment); err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	return saga.Succeeded(), nil
}
