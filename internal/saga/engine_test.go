package saga

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
)

type fakeStep struct {
	name           string
	executeOutcome StepOutcome
	executeErr     error
	compensateOutcome StepOutcome
	executions     int
}

func (f *fakeStep) Name() string { return f.name }
func (f *fakeStep) Execute(ctx context.Context, sc *StepContext) (StepOutcome, error) {
	f.executions++
	return f.executeOutcome, f.executeErr
}
func (f *fakeStep) Compensate(ctx context.Context, sc *StepContext) (StepOutcome, error) {
	return f.compensateOutcome, nil
}

type fakeSagaRepo struct {
	statusUpdates   []entities.SagaStatus
	advances        []int
	upserts         []entities.StepState
	deadLettered    []uuid.UUID
}

func (f *fakeSagaRepo) Create(ctx context.Context, s *entities.Saga) error { return nil }
func (f *fakeSagaRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Saga, error) {
	return nil, nil
}
func (f *fakeSagaRepo) GetByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Saga, error) {
	return nil, nil
}
func (f *fakeSagaRepo) AcquireLease(ctx context.Context, sagaID uuid.UUID, newToken string, leaseDuration time.Duration, now time.Time) (bool, error) {
	return true, nil
}
func (f *fakeSagaRepo) RenewLease(ctx context.Context, sagaID uuid.UUID, token string, leaseDuration time.Duration, now time.Time) error {
	return nil
}
func (f *fakeSagaRepo) ReleaseLease(ctx context.Context, sagaID uuid.UUID, token string) error { return nil }
func (f *fakeSagaRepo) UpdateStatus(ctx context.Context, sagaID uuid.UUID, status entities.SagaStatus, failureReason string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}
func (f *fakeSagaRepo) AdvanceStep(ctx context.Context, sagaID uuid.UUID, stepIndex int) error {
	f.advances = append(f.advances, stepIndex)
	return nil
}
func (f *fakeSagaRepo) MarkCancelRequested(ctx context.Context, tenantID, sagaID uuid.UUID) error { return nil }
func (f *fakeSagaRepo) MarkDeadLettered(ctx context.Context, sagaID uuid.UUID) error {
	f.deadLettered = append(f.deadLettered, sagaID)
	return nil
}
func (f *fakeSagaRepo) UpsertStepState(ctx context.Context, step *entities.StepState) error {
	f.upserts = append(f.upserts, *step)
	return nil
}
func (f *fakeSagaRepo) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.Saga, error) {
	return nil, nil
}
func (f *fakeSagaRepo) ListDeadLettered(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Saga, error) {
	return nil, nil
}

type fakePaymentRepo struct {
	payment *entities.Payment
	statusSet entities.PaymentStatus
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *entities.Payment) error { return nil }
func (f *fakePaymentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Payment, error) {
	return f.payment, nil
}
func (f *fakePaymentRepo) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*entities.Payment, error) {
	return nil, nil
}
func (f *fakePaymentRepo) GetByUETR(ctx context.Context, uetr entities.UETR) (*entities.Payment, error) {
	return nil, nil
}
func (f *fakePaymentRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status entities.PaymentStatus, reason entities.ReasonCode) error {
	f.statusSet = status
	return nil
}
func (f *fakePaymentRepo) SetClearingRail(ctx context.Context, tenantID, id uuid.UUID, rail entities.ClearingRail) error {
	return nil
}
func (f *fakePaymentRepo) SetTrackingRef(ctx context.Context, tenantID, id uuid.UUID, trackingRef string) error {
	return nil
}
func (f *fakePaymentRepo) SetRoutingCandidates(ctx context.Context, tenantID, id uuid.UUID, candidates []entities.ClearingAdapterID) error {
	return nil
}
func (f *fakePaymentRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	return nil, 0, nil
}

type fakeOutboxRepo struct{ appended []entities.OutboxRecord }

func (f *fakeOutboxRepo) Append(ctx context.Context, r *entities.OutboxRecord) error {
	f.appended = append(f.appended, *r)
	return nil
}
func (f *fakeOutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]*entities.OutboxRecord, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error { return nil }

type fakeUoW struct{}

func (fakeUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (fakeUoW) WithLock(ctx context.Context) context.Context                      { return ctx }

func newTestSaga() *entities.Saga {
	return &entities.Saga{ID: uuid.New(), PaymentID: uuid.New(), TenantID: uuid.New(), Status: entities.SagaStatusRunning}
}

func TestEngine_AdvanceForward_SucceedsAndMovesToNextStep(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepValidate, executeOutcome: Succeeded()}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, step.executions)
	assert.Equal(t, []int{1}, sagas.advances)
}

func TestEngine_AdvanceForward_RetryableSchedulesBackoff(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepValidate, executeOutcome: Retryable("transient")}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	require.Len(t, sagas.upserts, 1)
	assert.Equal(t, entities.StepStatusFailed, sagas.upserts[0].Status)
	assert.NotNil(t, sagas.upserts[0].NextRetryAt)
}

func TestEngine_AdvanceForward_TerminalBeginsCompensation(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepValidate, executeOutcome: Terminal("fraud_rejected", entities.ReasonFraudRejected)}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	assert.Contains(t, sagas.statusUpdates, entities.SagaStatusCompensating)
	assert.Equal(t, entities.PaymentStatusFailed, payments.statusSet)
	require.Len(t, outbox.appended, 1)
	assert.Equal(t, entities.TopicPaymentFailed, outbox.appended[0].Topic)
}

func TestEngine_AdvanceForward_ExhaustedRetriesBeginsCompensation(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepSubmitToClearing, executeOutcome: Retryable("circuit_open")}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	s.Steps = []entities.StepState{{Name: StepSubmitToClearing, Sequence: 0, Attempt: 2}}
	s.CurrentStepIndex = 0
	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	assert.Contains(t, sagas.statusUpdates, entities.SagaStatusCompensating)
}

func TestEngine_AdvanceCompensation_WalksBackward(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepReserveFunds, compensateOutcome: Succeeded()}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	s.Status = entities.SagaStatusCompensating
	s.Steps = []entities.StepState{{Name: StepReserveFunds, Status: entities.StepStatusSucceeded, CompensationStatus: entities.CompensationPending}}

	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	require.Len(t, sagas.upserts, 1)
	assert.Equal(t, entities.CompensationSucceeded, sagas.upserts[0].CompensationStatus)
}

func TestEngine_AdvanceCompensation_CompletesWhenAllDone(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, nil, zap.NewNop())

	s := newTestSaga()
	s.Status = entities.SagaStatusCompensating
	s.Steps = []entities.StepState{{Name: StepValidate, Status: entities.StepStatusSkipped, CompensationStatus: entities.CompensationNotNeeded}}

	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	assert.Contains(t, sagas.statusUpdates, entities.SagaStatusCompensated)
}

func TestEngine_AdvanceCompensation_RetriesUpToCeiling(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepReserveFunds, compensateOutcome: Retryable("ledger unavailable")}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	s.Status = entities.SagaStatusCompensating
	s.Steps = []entities.StepState{{Name: StepReserveFunds, Status: entities.StepStatusSucceeded, CompensationStatus: entities.CompensationPending}}

	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	require.Len(t, sagas.upserts, 1)
	assert.Equal(t, entities.CompensationFailed, sagas.upserts[0].CompensationStatus)
	assert.Equal(t, 1, sagas.upserts[0].CompensationAttempt)
	assert.Empty(t, sagas.deadLettered)
	assert.NotContains(t, sagas.statusUpdates, entities.SagaStatusFailed)
}

func TestEngine_AdvanceCompensation_DeadLettersOnExhaustedRetries(t *testing.T) {
	sagas := &fakeSagaRepo{}
	payments := &fakePaymentRepo{payment: &entities.Payment{}}
	outbox := &fakeOutboxRepo{}
	step := &fakeStep{name: StepReserveFunds, compensateOutcome: Retryable("ledger unavailable")}
	engine := NewEngine(sagas, payments, outbox, fakeUoW{}, []Step{step}, zap.NewNop())

	s := newTestSaga()
	s.Status = entities.SagaStatusCompensating
	s.Steps = []entities.StepState{{
		Name: StepReserveFunds, Status: entities.StepStatusSucceeded,
		CompensationStatus:  entities.CompensationFailed,
		CompensationAttempt: MaxAttemptsFor(RailBound(StepReserveFunds)) - 1,
	}}

	err := engine.Advance(context.Background(), s, &entities.TenantConfig{})
	require.NoError(t, err)
	require.Len(t, sagas.upserts, 1)
	assert.Equal(t, entities.CompensationFailed, sagas.upserts[0].CompensationStatus)
	require.Len(t, sagas.deadLettered, 1)
	assert.Equal(t, s.ID, sagas.deadLettered[0])
	assert.Contains(t, sagas.statusUpdates, entities.SagaStatusFailed)
	assert.Equal(t, entities.PaymentStatusFailed, payments.statusSet)
	assert.True(t, s.DeadLettered)
}

func TestBackoff_NeverExceedsCap(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := Backoff(100*time.Millisecond, 5*time.Second, attempt)
		assert.LessOrEqual(t, d, 5*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	}
}

func TestMaxAttemptsFor(t *testing.T) {
	assert.Equal(t, 3, MaxAttemptsFor(true))
	assert.Equal(t, 5, MaxAttemptsFor(false))
}
