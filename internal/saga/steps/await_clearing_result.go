package steps

import (
	"context"

	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// AwaitClearingResultStep polls (synchronous rails) or checks for a
// previously-signalled inbound callback (asynchronous rails, matched on
// UETR) via ClearingFramework.AwaitResult. A non-final result is reported
// Retryable so the saga re-checks on the next poll cycle rather than
// blocking the worker.
type AwaitClearingResultStep struct {
	framework ClearingFramework
}

func NewAwaitClearingResultStep(framework ClearingFramework) *AwaitClearingResultStep {
	return &AwaitClearingResultStep{framework: framework}
}

func (s *AwaitClearingResultStep) Name() string { return saga.StepAwaitClearingResult }

func (s *AwaitClearingResultStep) currentAdapter(sc *saga.StepContext) (entities.ClearingAdapterID, bool) {
	if len(sc.Payment.RoutingCandidates) == 0 {
		return "", false
	}
	// SubmitToClearing's successful attempt picked this one; Attempt here is
	// this step's own attempt counter, not SubmitToClearing's, so fall back
	// to the first candidate when only one was ever viable.
	return sc.Payment.RoutingCandidates[0], true
}

func (s *AwaitClearingResultStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	adapterID, ok := s.currentAdapter(sc)
	if !ok {
		e := domainerrors.Config("no clearing adapter recorded to await result from", nil)
		return saga.Terminal(e.Message, e.ReasonCode), e
	}

	outcome, final, err := s.framework.AwaitResult(ctx, adapterID, sc.Payment)
	if err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	if !final {
		return saga.Retryable("clearing result not yet available"), nil
	}
	if !outcome.Accepted {
		e := domainerrors.AdapterReject("clearing rail reported final rejection", nil)
		return saga.Terminal(e.Message, outcome.ReasonCode), e
	}
	return saga.Succeeded(), nil
}

func (s *AwaitClearingResultStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	return saga.Skipped("awaiting a result has no side effects to undo"), nil
}
