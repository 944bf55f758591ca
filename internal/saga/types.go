// Package saga implements the durable state machine that drives one Payment
// from acceptance to terminal state: Validate, FraudScore, ReserveFunds,
// Route, SubmitToClearing, AwaitClearingResult, PostLedger, Notify. Each
// step is idempotent given the same (SagaId, StepName, Attempt) and every
// state transition is persisted before the next step starts.
package saga

import (
	"context"

	"payorch.backend/internal/domain/entities"
)

// OutcomeKind classifies what a step's Execute/Compensate call produced.
type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "SUCCEEDED"
	OutcomeRetryable OutcomeKind = "RETRYABLE"
	OutcomeTerminal  OutcomeKind = "TERMINAL"
	OutcomeSkipped   OutcomeKind = "SKIPPED"
)

// StepOutcome is the sum type every step's Execute and Compensate return.
type StepOutcome struct {
	Kind       OutcomeKind
	Reason     string
	ReasonCode entities.ReasonCode
}

func Succeeded() StepOutcome { return StepOutcome{Kind: OutcomeSucceeded} }

func Skipped(reason string) StepOutcome {
	return StepOutcome{Kind: OutcomeSkipped, Reason: reason}
}

func Retryable(reason string) StepOutcome {
	return StepOutcome{Kind: OutcomeRetryable, Reason: reason}
}

func Terminal(reason string, code entities.ReasonCode) StepOutcome {
	return StepOutcome{Kind: OutcomeTerminal, Reason: reason, ReasonCode: code}
}

// StepContext carries everything a step needs to execute or compensate,
// threaded explicitly rather than stashed in context.Context (only
// cancellation/deadline/tracing live there).
type StepContext struct {
	Saga    *entities.Saga
	Payment *entities.Payment
	Tenant  *entities.TenantConfig
	Attempt int
}

// Step is one saga stage. Execute advances the payment; Compensate undoes
// whatever Execute committed, and must be safe to call when Execute never
// ran (Skipped) or only partially completed.
type Step interface {
	Name() string
	Execute(ctx context.Context, sc *StepContext) (StepOutcome, error)
	Compensate(ctx context.Context, sc *StepContext) (StepOutcome, error)
}
