package steps

import (
	"context"

	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// FraudScoreStep invokes the fraud adapter iff the tenant's payment type
// has fraud scoring enabled. A score above the configured threshold is a
// terminal rejection; below, the saga proceeds. No side effects on the
// debtor/creditor accounts, so compensation is a no-op.
type FraudScoreStep struct {
	adapter FraudAdapter
}

func NewFraudScoreStep(adapter FraudAdapter) *FraudScoreStep {
	return &FraudScoreStep{adapter: adapter}
}

func (s *FraudScoreStep) Name() string { return saga.StepFraudScore }

func (s *FraudScoreStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	cfg, ok := sc.Tenant.PaymentType(sc.Payment.PaymentType)
	if !ok || !cfg.FraudEnabled || !sc.Tenant.Features.FraudScoringEnabled {
		return saga.Skipped("fraud scoring disabled for tenant/payment type"), nil
	}

	score, err := s.adapter.Score(ctx, sc.Payment)
	if err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}

	threshold := cfg.FraudThreshold
	if threshold <= 0 {
		threshold = 0.8
	}
	if score >= threshold {
		err := domainerrors.Fraud("fraud score above tenant threshold", nil)
		return saga.Terminal(err.Message, err.ReasonCode), err
	}
	return saga.Succeeded(), nil
}

func (s *FraudScoreStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	return saga.Skipped("fraud score has no side effects"), nil
}
