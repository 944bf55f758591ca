package steps

import (
	"context"

	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/saga"
)

// RouteStep calls the routing resolver once and records the ordered
// candidate list on the payment so SubmitToClearing can fail over to the
// next candidate without re-resolving. The engine persists the mutated
// payment after Execute returns, so the only side effect here is in-memory.
// Compensation is a no-op: routing has nothing to undo.
type RouteStep struct {
	resolver RoutingResolver
}

func NewRouteStep(resolver RoutingResolver) *RouteStep {
	return &RouteStep{resolver: resolver}
}

func (s *RouteStep) Name() string { return saga.StepRoute }

func (s *RouteStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	candidates, err := s.resolver.Resolve(ctx, sc.Tenant, sc.Payment)
	if err != nil {
		appErr := domainerrors.AsAppError(err)
		if appErr.Retryable() {
			return saga.Retryable(appErr.Message), err
		}
		return saga.Terminal(appErr.Message, appErr.ReasonCode), err
	}
	if len(candidates) == 0 {
		e := domainerrors.TenantPolicy("no clearing adapter candidates resolved", nil)
		return saga.Terminal(e.Message, e.ReasonCode), e
	}
	sc.Payment.RoutingCandidates = candidates
	return saga.Succeeded(), nil
}

func (s *RouteStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	return saga.Skipped("route has no side effects"), nil
}
