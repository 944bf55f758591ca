package saga

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/pkg/metrics"
)

// BackoffPolicy parameterises retry scheduling; steps.RailBound selects
// between the internal and rail-bound ceilings.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoffPolicy matches the base/cap used across the clearing
// adapters' own retry policies, so a step retry and an adapter-internal
// retry land on comparable timescales.
var DefaultBackoffPolicy = BackoffPolicy{Base: 200 * time.Millisecond, Cap: 30 * time.Second}

// Engine advances one saga at a time under its lease. It never runs two
// steps of the same saga concurrently: AcquireLease is the single point of
// mutual exclusion between worker processes.
type Engine struct {
	sagas   repositories.SagaRepository
	payments repositories.PaymentRepository
	outbox  repositories.OutboxRepository
	uow     repositories.UnitOfWork
	steps   map[string]Step
	backoff BackoffPolicy
	log     *zap.Logger
}

func NewEngine(
	sagas repositories.SagaRepository,
	payments repositories.PaymentRepository,
	outbox repositories.OutboxRepository,
	uow repositories.UnitOfWork,
	steps []Step,
	log *zap.Logger,
) *Engine {
	index := make(map[string]Step, len(steps))
	for _, s := range steps {
		index[s.Name()] = s
	}
	return &Engine{sagas: sagas, payments: payments, outbox: outbox, uow: uow, steps: index, backoff: DefaultBackoffPolicy, log: log}
}

// Advance runs exactly one step of the saga identified by sagaID: the
// current step if the saga is Running, or the next pending compensation if
// it is Compensating. The caller must already hold the saga's lease.
func (e *Engine) Advance(ctx context.Context, saga *entities.Saga, tenant *entities.TenantConfig) error {
	switch saga.Status {
	case entities.SagaStatusRunning:
		return e.advanceForward(ctx, saga, tenant)
	case entities.SagaStatusCompensating:
		return e.advanceCompensation(ctx, saga, tenant)
	default:
		return nil
	}
}

func (e *Engine) advanceForward(ctx context.Context, saga *entities.Saga, tenant *entities.TenantConfig) error {
	if saga.CurrentStepIndex >= len(DefaultPlan) {
		return e.completeSaga(ctx, saga)
	}
	name := DefaultPlan[saga.CurrentStepIndex]

	// Cancellation is only honoured up to the point of clearing submission:
	// once a payment has been handed to a rail it may already be
	// irrevocable, so from SubmitToClearing onward a cancel request is
	// dropped and the saga keeps running to a normal conclusion.
	if saga.CancelRequested && saga.CurrentStepIndex < cancelCutoffIndex {
		state := findOrInitStep(saga, name, saga.CurrentStepIndex)
		return e.beginCompensation(ctx, saga, state, "cancellation requested by caller", entities.ReasonCancelled)
	}

	step, ok := e.steps[name]
	if !ok {
		return fmt.Errorf("no step implementation registered for %q", name)
	}
	state := findOrInitStep(saga, name, saga.CurrentStepIndex)

	payment, err := e.payments.GetByID(ctx, saga.TenantID, saga.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment for saga %s: %w", saga.ID, err)
	}

	state.Attempt++
	state.Status = entities.StepStatusRunning
	if err := e.sagas.UpsertStepState(ctx, state); err != nil {
		return err
	}

	sc := &StepContext{Saga: saga, Payment: payment, Tenant: tenant, Attempt: state.Attempt}
	stepStart := time.Now()
	outcome, stepErr := step.Execute(ctx, sc)
	metrics.RecordSagaStep(name, string(outcome.Kind), time.Since(stepStart))

	if outcome.Kind == OutcomeSucceeded {
		if err := e.persistPaymentSideEffects(ctx, payment, name); err != nil {
			return err
		}
	}

	return e.applyOutcome(ctx, saga, state, outcome, stepErr)
}

// persistPaymentSideEffects writes the in-memory Payment mutations a step
// made back to the repository. Only Route and SubmitToClearing mutate
// fields beyond Status, which the engine persists separately at saga
// completion/failure.
func (e *Engine) persistPaymentSideEffects(ctx context.Context, payment *entities.Payment, stepName string) error {
	switch stepName {
	case StepRoute:
		return e.payments.SetRoutingCandidates(ctx, payment.TenantID, payment.ID, payment.RoutingCandidates)
	case StepSubmitToClearing:
		if err := e.payments.SetClearingRail(ctx, payment.TenantID, payment.ID, payment.ClearingRail); err != nil {
			return err
		}
		if payment.TrackingRef != "" {
			return e.payments.SetTrackingRef(ctx, payment.TenantID, payment.ID, payment.TrackingRef)
		}
		return nil
	default:
		return nil
	}
}

func (e *Engine) applyOutcome(ctx context.Context, saga *entities.Saga, state *entities.StepState, outcome StepOutcome, stepErr error) error {
	now := time.Now()
	switch outcome.Kind {
	case OutcomeSucceeded, OutcomeSkipped:
		state.Status = entities.StepStatusSucceeded
		if outcome.Kind == OutcomeSkipped {
			state.Status = entities.StepStatusSkipped
		}
		state.LastError = ""
		state.NextRetryAt = nil
		if err := e.sagas.UpsertStepState(ctx, state); err != nil {
			return err
		}
		saga.CurrentStepIndex++
		if err := e.sagas.AdvanceStep(ctx, saga.ID, saga.CurrentStepIndex); err != nil {
			return err
		}
		if saga.CurrentStepIndex >= len(DefaultPlan) {
			return e.completeSaga(ctx, saga)
		}
		return nil

	case OutcomeRetryable:
		maxAttempts := MaxAttemptsFor(RailBound(state.Name))
		if state.Attempt >= maxAttempts {
			return e.beginCompensation(ctx, saga, state, outcome.Reason, entities.ReasonSystemError)
		}
		state.Status = entities.StepStatusFailed
		state.LastError = outcome.Reason
		if stepErr != nil {
			state.LastError = stepErr.Error()
		}
		delay := Backoff(e.backoff.Base, e.backoff.Cap, state.Attempt)
		next := now.Add(delay)
		state.NextRetryAt = &next
		return e.sagas.UpsertStepState(ctx, state)

	case OutcomeTerminal:
		reasonCode := outcome.ReasonCode
		if reasonCode == "" {
			reasonCode = entities.ReasonSystemError
		}
		return e.beginCompensation(ctx, saga, state, outcome.Reason, reasonCode)

	default:
		return fmt.Errorf("unhandled step outcome kind %q", outcome.Kind)
	}
}

func (e *Engine) beginCompensation(ctx context.Context, saga *entities.Saga, failedState *entities.StepState, reason string, reasonCode entities.ReasonCode) error {
	failedState.Status = entities.StepStatusFailed
	failedState.LastError = reason
	if err := e.sagas.UpsertStepState(ctx, failedState); err != nil {
		return err
	}
	if err := e.sagas.UpdateStatus(ctx, saga.ID, entities.SagaStatusCompensating, reason); err != nil {
		return err
	}
	saga.Status = entities.SagaStatusCompensating
	saga.FailureReason = reason

	return e.uow.Do(ctx, func(txCtx context.Context) error {
		if err := e.payments.UpdateStatus(txCtx, saga.TenantID, saga.PaymentID, entities.PaymentStatusFailed, reasonCode); err != nil {
			return err
		}
		return e.appendEvent(txCtx, saga, entities.TopicPaymentFailed, map[string]any{"reason": reason})
	})
}

// advanceCompensation walks the step list backward from the step before the
// one that failed, compensating every step whose CompensationStatus is
// Pending, one per call so progress survives a crash between compensations.
func (e *Engine) advanceCompensation(ctx context.Context, saga *entities.Saga, tenant *entities.TenantConfig) error {
	for i := len(saga.Steps) - 1; i >= 0; i-- {
		state := saga.Steps[i]
		if state.Status != entities.StepStatusSucceeded {
			continue
		}
		if state.CompensationStatus == entities.CompensationSucceeded || state.CompensationStatus == entities.CompensationNotNeeded {
			continue
		}
		step, ok := e.steps[state.Name]
		if !ok {
			return fmt.Errorf("no step implementation registered for %q", state.Name)
		}
		payment, err := e.payments.GetByID(ctx, saga.TenantID, saga.PaymentID)
		if err != nil {
			return err
		}
		st := state
		st.CompensationAttempt++
		sc := &StepContext{Saga: saga, Payment: payment, Tenant: tenant, Attempt: st.CompensationAttempt}
		outcome, _ := step.Compensate(ctx, sc)
		switch outcome.Kind {
		case OutcomeSucceeded, OutcomeSkipped:
			st.CompensationStatus = entities.CompensationSucceeded
			if err := e.sagas.UpsertStepState(ctx, &st); err != nil {
				return err
			}
			return nil
		default:
			st.CompensationStatus = entities.CompensationFailed
			if err := e.sagas.UpsertStepState(ctx, &st); err != nil {
				return err
			}
			if st.CompensationAttempt < MaxAttemptsFor(RailBound(st.Name)) {
				e.log.Warn("compensation failed, will retry on next advance", zap.String("saga", saga.ID.String()), zap.String("step", st.Name), zap.Int("attempt", st.CompensationAttempt))
				return nil
			}
			e.log.Error("compensation exhausted its retry budget, dead-lettering saga", zap.String("saga", saga.ID.String()), zap.String("step", st.Name), zap.Int("attempt", st.CompensationAttempt))
			return e.deadLetterSaga(ctx, saga, fmt.Sprintf("compensation for step %q exhausted retries", st.Name))
		}
	}

	if err := e.sagas.UpdateStatus(ctx, saga.ID, entities.SagaStatusCompensated, saga.FailureReason); err != nil {
		return err
	}
	return nil
}

// deadLetterSaga marks saga Failed with the dead-letter flag set, per
// spec.md §4.2: a compensation that exhausts its retry budget must not
// leave the saga stuck Compensating forever, and must surface on
// GET /ops/sagas/dead-letter for operator intervention.
func (e *Engine) deadLetterSaga(ctx context.Context, saga *entities.Saga, reason string) error {
	if err := e.sagas.MarkDeadLettered(ctx, saga.ID); err != nil {
		return err
	}
	saga.Status = entities.SagaStatusFailed
	saga.DeadLettered = true
	saga.FailureReason = reason

	return e.uow.Do(ctx, func(txCtx context.Context) error {
		if err := e.payments.UpdateStatus(txCtx, saga.TenantID, saga.PaymentID, entities.PaymentStatusFailed, entities.ReasonSystemError); err != nil {
			return err
		}
		return e.appendEvent(txCtx, saga, entities.TopicPaymentFailed, map[string]any{"reason": reason, "deadLettered": true})
	})
}

func (e *Engine) completeSaga(ctx context.Context, saga *entities.Saga) error {
	if err := e.sagas.UpdateStatus(ctx, saga.ID, entities.SagaStatusCompleted, ""); err != nil {
		return err
	}
	return e.uow.Do(ctx, func(txCtx context.Context) error {
		if err := e.payments.UpdateStatus(txCtx, saga.TenantID, saga.PaymentID, entities.PaymentStatusSettled, entities.ReasonNone); err != nil {
			return err
		}
		return e.appendEvent(txCtx, saga, entities.TopicPaymentCompleted, map[string]any{"sagaId": saga.ID})
	})
}

func (e *Engine) appendEvent(ctx context.Context, saga *entities.Saga, topic string, payload any) error {
	rec := &entities.OutboxRecord{
		AggregateID: saga.PaymentID,
		TenantID:    saga.TenantID,
		Topic:       topic,
		SchemaVer:   "v1",
		Payload:     marshalOrEmpty(payload),
		CreatedAt:   time.Now(),
	}
	return e.outbox.Append(ctx, rec)
}

func findOrInitStep(saga *entities.Saga, name string, sequence int) *entities.StepState {
	for i := range saga.Steps {
		if saga.Steps[i].Name == name {
			return &saga.Steps[i]
		}
	}
	st := entities.StepState{
		SagaID:             saga.ID,
		Name:               name,
		Sequence:           sequence,
		Status:             entities.StepStatusPending,
		CompensationStatus: entities.CompensationNotNeeded,
		UpdatedAt:          time.Now(),
	}
	saga.Steps = append(saga.Steps, st)
	return &saga.Steps[len(saga.Steps)-1]
}

// AsAppError is a small convenience re-export so step implementations don't
// need to import the errors package solely for this.
func AsAppError(err error) *domainerrors.AppError { return domainerrors.AsAppError(err) }
