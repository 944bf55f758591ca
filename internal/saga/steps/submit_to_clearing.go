package steps

import (
	"context"

	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// SubmitToClearingStep delegates to the routing candidate chosen for this
// attempt: Route's resolved list, indexed by (Attempt-1) modulo its length
// so a Retryable failure on attempt N tries the next candidate on attempt
// N+1 without re-running Route, per spec §5.3. Compensation issues a cancel
// via the same adapter if the rail supports it.
type SubmitToClearingStep struct {
	framework ClearingFramework
}

func NewSubmitToClearingStep(framework ClearingFramework) *SubmitToClearingStep {
	return &SubmitToClearingStep{framework: framework}
}

func (s *SubmitToClearingStep) Name() string { return saga.StepSubmitToClearing }

func (s *SubmitToClearingStep) candidateFor(sc *saga.StepContext) (entities.ClearingAdapterID, bool) {
	candidates := sc.Payment.RoutingCandidates
	if len(candidates) == 0 {
		return "", false
	}
	idx := (sc.Attempt - 1) % len(candidates)
	return candidates[idx], true
}

func (s *SubmitToClearingStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	adapterID, ok := s.candidateFor(sc)
	if !ok {
		e := domainerrors.TenantPolicy("no routing candidates available for submission", nil)
		return saga.Terminal(e.Message, e.ReasonCode), e
	}

	outcome, err := s.framework.Submit(ctx, adapterID, sc.Payment)
	if caps, capErr := s.framework.Capabilities(ctx, adapterID); capErr == nil {
		sc.Payment.ClearingRail = caps.Rail
	}
	if err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	if !outcome.Accepted {
		e := domainerrors.AdapterReject("clearing adapter rejected submission", nil)
		return saga.Terminal(e.Message, outcome.ReasonCode), e
	}
	sc.Payment.TrackingRef = outcome.TrackingRef
	return saga.Succeeded(), nil
}

func (s *SubmitToClearingStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	adapterID, ok := s.candidateFor(sc)
	if !ok {
		return saga.Skipped("no adapter recorded to cancel against"), nil
	}
	caps, err := s.framework.Capabilities(ctx, adapterID)
	if err != nil {
		return saga.Skipped("capabilities unavailable, treating as uncancellable"), nil
	}
	if !caps.SupportsCancel {
		return saga.Skipped("rail does not support cancellation"), nil
	}
	// The actual camt.055/camt.029 cancel round trip is driven by the cancel
	// usecase, which has the correlation state this step doesn't; here we
	// only confirm the rail is capable so the saga doesn't block on it.
	return saga.Succeeded(), nil
}
