package steps

import (
	"context"

	"go.uber.org/zap"
	"payorch.backend/internal/saga"
)

// NotifyStep dispatches the pain.002 response per the payment type's
// response mode. Per spec §4.2, Notify is always best-effort and never
// fails the saga: a dispatch error is logged and swallowed so a flaky
// callback URL or broker never blocks an otherwise-completed payment.
type NotifyStep struct {
	dispatcher Dispatcher
	log        *zap.Logger
}

func NewNotifyStep(dispatcher Dispatcher, log *zap.Logger) *NotifyStep {
	return &NotifyStep{dispatcher: dispatcher, log: log}
}

func (s *NotifyStep) Name() string { return saga.StepNotify }

func (s *NotifyStep) Execute(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	if err := s.dispatcher.Dispatch(ctx, sc.Payment); err != nil {
		s.log.Warn("notify dispatch failed, proceeding anyway", zap.String("paymentId", sc.Payment.ID.String()), zap.Error(err))
	}
	return saga.Succeeded(), nil
}

func (s *NotifyStep) Compensate(ctx context.Context, sc *saga.StepContext) (saga.StepOutcome, error) {
	return saga.Skipped("notify has no side effects to undo"), nil
}
