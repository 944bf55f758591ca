package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
)

type fakePaymentRepo struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*entities.Payment
	byIdemKey   map[string]*entities.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: map[uuid.UUID]*entities.Payment{}, byIdemKey: map[string]*entities.Payment{}}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *entities.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = p
	if p.IdempotencyKey != "" {
		f.byIdemKey[p.IdempotencyKey] = p
	}
	return nil
}
func (f *fakePaymentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	cp := *p
	return &cp, nil
}
func (f *fakePaymentRepo) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*entities.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byIdemKey[key]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return p, nil
}
func (f *fakePaymentRepo) GetByUETR(ctx context.Context, uetr entities.UETR) (*entities.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.UETR == uetr {
			return p, nil
		}
	}
	return nil, context.DeadlineExceeded
}
func (f *fakePaymentRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status entities.PaymentStatus, reason entities.ReasonCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		p.Status = status
		p.ReasonCode = reason
	}
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

type fakeSagaRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*entities.Saga
	byPayment map[uuid.UUID]*entities.Saga
	leaseHeld map[uuid.UUID]bool
}

func newFakeSagaRepo() *fakeSagaRepo {
	return &fakeSagaRepo{byID: map[uuid.UUID]*entities.Saga{}, byPayment: map[uuid.UUID]*entities.Saga{}, leaseHeld: map[uuid.UUID]bool{}}
}

func (f *fakeSagaRepo) Create(ctx context.Context, s *entities.Saga) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.ID] = s
	f.byPayment[s.PaymentID] = s
	return nil
}
func (f *fakeSagaRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Saga, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return s, nil
}
func (f *fakeSagaRepo) GetByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Saga, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byPayment[paymentID]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return s, nil
}
func (f *fakeSagaRepo) AcquireLease(ctx context.Context, sagaID uuid.UUID, newToken string, leaseDuration time.Duration, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseHeld[sagaID] {
		return false, nil
	}
	f.leaseHeld[sagaID] = true
	return true, nil
}
func (f *fakeSagaRepo) RenewLease(ctx context.Context, sagaID uuid.UUID, token string, leaseDuration time.Duration, now time.Time) error {
	return nil
}
func (f *fakeSagaRepo) ReleaseLease(ctx context.Context, sagaID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaseHeld[sagaID] = false
	return nil
}
func (f *fakeSagaRepo) UpdateStatus(ctx context.Context, sagaID uuid.UUID, status entities.SagaStatus, failureReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[sagaID]; ok {
		s.Status = status
		s.FailureReason = failureReason
	}
	return nil
}
func (f *fakeSagaRepo) AdvanceStep(ctx context.Context, sagaID uuid.UUID, stepIndex int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[sagaID]; ok {
		s.CurrentStepIndex = stepIndex
	}
	return nil
}
func (f *fakeSagaRepo) MarkCancelRequested(ctx context.Context, tenantID, sagaID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[sagaID]; ok {
		s.CancelRequested = true
	}
	return nil
}
func (f *fakeSagaRepo) MarkDeadLettered(ctx context.Context, sagaID uuid.UUID) error { return nil }
func (f *fakeSagaRepo) UpsertStepState(ctx context.Context, step *entities.StepState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[step.SagaID]
	if !ok {
		return nil
	}
	for i := range s.Steps {
		if s.Steps[i].Name == step.Name {
			s.Steps[i] = *step
			return nil
		}
	}
	s.Steps = append(s.Steps, *step)
	return nil
}
func (f *fakeSagaRepo) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.Saga, error) {
	return nil, nil
}
func (f *fakeSagaRepo) ListDeadLettered(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Saga, error) {
	return nil, nil
}

type fakeTenantConfigRepo struct {
	cfg *entities.TenantConfig
}

func (f *fakeTenantConfigRepo) GetConfig(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error) {
	return f.cfg, nil
}
func (f *fakeTenantConfigRepo) GetVersion(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return f.cfg.Version, nil
}

type fakeOutboxRepo struct {
	mu       sync.Mutex
	appended []entities.OutboxRecord
}

func (f *fakeOutboxRepo) Append(ctx context.Context, r *entities.OutboxRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, *r)
	return nil
}
func (f *fakeOutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]*entities.OutboxRecord, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error { return nil }

type fakeAdapterCredentialRepo struct {
	mu       sync.Mutex
	byHash   map[string]*entities.AdapterCredential
}

func newFakeAdapterCredentialRepo() *fakeAdapterCredentialRepo {
	return &fakeAdapterCredentialRepo{byHash: map[string]*entities.AdapterCredential{}}
}

func (f *fakeAdapterCredentialRepo) Create(ctx context.Context, cred *entities.AdapterCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[cred.KeyHash] = cred
	return nil
}
func (f *fakeAdapterCredentialRepo) GetByKeyHash(ctx context.Context, keyHash string) (*entities.AdapterCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.byHash[keyHash]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	cp := *cred
	return &cp, nil
}
func (f *fakeAdapterCredentialRepo) ListByAdapter(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) ([]*entities.AdapterCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.AdapterCredential
	for _, c := range f.byHash {
		if c.TenantID == tenantID && c.AdapterID == adapterID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeAdapterCredentialRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byHash {
		if c.ID == id {
			c.IsActive = false
		}
	}
	return nil
}

type fakeUETRIndexRepo struct {
	mu   sync.Mutex
	seen map[entities.UETR]uuid.UUID
}

func newFakeUETRIndexRepo() *fakeUETRIndexRepo {
	return &fakeUETRIndexRepo{seen: map[entities.UETR]uuid.UUID{}}
}

func (f *fakeUETRIndexRepo) ReserveIfAbsent(ctx context.Context, uetr entities.UETR, paymentID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[uetr]; ok {
		return false, nil
	}
	f.seen[uetr] = paymentID
	return true, nil
}

func (f *fakeUETRIndexRepo) Lookup(ctx context.Context, uetr entities.UETR) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	paymentID, ok := f.seen[uetr]
	return paymentID, ok, nil
}

type fakeUoW struct{}

func (fakeUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (fakeUoW) WithLock(ctx context.Context) context.Context                     { return ctx }

type fakeWaiterRegistry struct {
	mu       sync.Mutex
	waiters  map[uuid.UUID]chan struct{}
}

func newFakeWaiterRegistry() *fakeWaiterRegistry {
	return &fakeWaiterRegistry{waiters: map[uuid.UUID]chan struct{}{}}
}
func (r *fakeWaiterRegistry) Register(paymentID uuid.UUID) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.waiters[paymentID] = ch
	return ch
}
func (r *fakeWaiterRegistry) Forget(paymentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, paymentID)
}
func (r *fakeWaiterRegistry) Signal(paymentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.waiters[paymentID]; ok {
		close(ch)
		delete(r.waiters, paymentID)
	}
}

type fakeOperatorRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*entities.Operator
	byEmail map[string]*entities.Operator
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{byID: map[uuid.UUID]*entities.Operator{}, byEmail: map[string]*entities.Operator{}}
}
func (f *fakeOperatorRepo) Create(ctx context.Context, op *entities.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[op.Email]; exists {
		return domainerrors.ErrAlreadyExists
	}
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	cp := *op
	f.byID[op.ID] = &cp
	f.byEmail[op.Email] = &cp
	return nil
}
func (f *fakeOperatorRepo) GetByEmail(ctx context.Context, email string) (*entities.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.byEmail[email]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	cp := *op
	return &cp, nil
}
func (f *fakeOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	cp := *op
	return &cp, nil
}
