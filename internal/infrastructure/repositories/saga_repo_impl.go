package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type sagaRepo struct {
	db *gorm.DB
}

// NewSagaRepository creates a new saga repository
func NewSagaRepository(db *gorm.DB) domainrepos.SagaRepository {
	return &sagaRepo{db: db}
}

func (r *sagaRepo) Create(ctx context.Context, saga *entities.Saga) error {
	if saga.ID == uuid.Nil {
		saga.ID = uuid.New()
	}
	now := time.Now()
	saga.CreatedAt = now
	saga.UpdatedAt = now

	row := &models.Saga{
		ID:               saga.ID,
		PaymentID:        saga.PaymentID,
		TenantID:         saga.TenantID,
		CurrentStepIndex: saga.CurrentStepIndex,
		Status:           string(saga.Status),
		CancelRequested:  saga.CancelRequested,
		DeadLettered:     saga.DeadLettered,
		FailureReason:    saga.FailureReason,
		SagaDeadline:     saga.SagaDeadline,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *sagaRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Saga, error) {
	var row models.Saga
	if err := GetDB(ctx, r.db).Where("id = ? AND tenant_id = ?", id, tenantID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &row)
}

func (r *sagaRepo) GetByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Saga, error) {
	var row models.Saga
	if err := GetDB(ctx, r.db).Where("payment_id = ? AND tenant_id = ?", paymentID, tenantID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, &row)
}

func (r *sagaRepo) hydrate(ctx context.Context, row *models.Saga) (*entities.Saga, error) {
	var steps []models.StepState
	if err := GetDB(ctx, r.db).Where("saga_id = ?", row.ID).Order("sequence ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return toSagaEntity(row, steps), nil
}

// AcquireLease atomically claims an unleased or lease-expired saga.
func (r *sagaRepo) AcquireLease(ctx context.Context, sagaID uuid.UUID, newToken string, leaseDuration time.Duration, now time.Time) (bool, error) {
	result := GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ? AND (lock_token = '' OR lease_deadline < ?)", sagaID, now).
		Updates(map[string]interface{}{
			"lock_token":     newToken,
			"lease_deadline": now.Add(leaseDuration),
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *sagaRepo) RenewLease(ctx context.Context, sagaID uuid.UUID, token string, leaseDuration time.Duration, now time.Time) error {
	result := GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ? AND lock_token = ?", sagaID, token).
		Updates(map[string]interface{}{"lease_deadline": now.Add(leaseDuration), "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *sagaRepo) ReleaseLease(ctx context.Context, sagaID uuid.UUID, token string) error {
	return GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ? AND lock_token = ?", sagaID, token).
		Updates(map[string]interface{}{"lock_token": "", "lease_deadline": time.Time{}}).Error
}

func (r *sagaRepo) UpdateStatus(ctx context.Context, sagaID uuid.UUID, status entities.SagaStatus, failureReason string) error {
	result := GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ?", sagaID).
		Updates(map[string]interface{}{"status": string(status), "failure_reason": failureReason, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *sagaRepo) AdvanceStep(ctx context.Context, sagaID uuid.UUID, stepIndex int) error {
	return GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ?", sagaID).
		Updates(map[string]interface{}{"current_step_index": stepIndex, "updated_at": time.Now()}).Error
}

func (r *sagaRepo) MarkCancelRequested(ctx context.Context, tenantID, sagaID uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ? AND tenant_id = ?", sagaID, tenantID).
		Updates(map[string]interface{}{"cancel_requested": true, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *sagaRepo) MarkDeadLettered(ctx context.Context, sagaID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&models.Saga{}).
		Where("id = ?", sagaID).
		Updates(map[string]interface{}{"dead_lettered": true, "status": string(entities.SagaStatusFailed), "updated_at": time.Now()}).Error
}

// UpsertStepState writes the step row, inserting on first touch and
// updating in place thereafter (keyed on SagaID+Name, not a synthetic ID).
func (r *sagaRepo) UpsertStepState(ctx context.Context, step *entities.StepState) error {
	db := GetDB(ctx, r.db)
	var existing models.StepState
	err := db.Where("saga_id = ? AND name = ?", step.SagaID, step.Name).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if step.ID == uuid.Nil {
			step.ID = uuid.New()
		}
		step.UpdatedAt = time.Now()
		return db.Create(fromStepStateEntity(step)).Error
	case err != nil:
		return err
	default:
		step.ID = existing.ID
		step.UpdatedAt = time.Now()
		return db.Model(&models.StepState{}).Where("id = ?", existing.ID).Updates(fromStepStateEntity(step)).Error
	}
}

// ListDueForRetry returns lease-free sagas whose current step's backoff has
// elapsed, for the worker poll loop.
func (r *sagaRepo) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entities.Saga, error) {
	var stepRows []models.StepState
	if err := GetDB(ctx, r.db).Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", "FAILED", now).Find(&stepRows).Error; err != nil {
		return nil, err
	}
	sagaIDs := make([]uuid.UUID, 0, len(stepRows))
	for _, s := range stepRows {
		sagaIDs = append(sagaIDs, s.SagaID)
	}
	if len(sagaIDs) == 0 {
		return nil, nil
	}

	var rows []models.Saga
	query := GetDB(ctx, r.db).Where("id IN ? AND status = ? AND (lock_token = '' OR lease_deadline < ?)", sagaIDs, "RUNNING", now)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	sagas := make([]*entities.Saga, 0, len(rows))
	for i := range rows {
		s, err := r.hydrate(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		sagas = append(sagas, s)
	}
	return sagas, nil
}

func (r *sagaRepo) ListDeadLettered(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Saga, error) {
	var rows []models.Saga
	query := GetDB(ctx, r.db).Where("tenant_id = ? AND dead_lettered = ?", tenantID, true).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	sagas := make([]*entities.Saga, 0, len(rows))
	for i := range rows {
		s, err := r.hydrate(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		sagas = append(sagas, s)
	}
	return sagas, nil
}

func toSagaEntity(row *models.Saga, stepRows []models.StepState) *entities.Saga {
	steps := make([]entities.StepState, 0, len(stepRows))
	for _, sr := range stepRows {
		steps = append(steps, toStepStateEntity(&sr))
	}
	return &entities.Saga{
		ID:               row.ID,
		PaymentID:        row.PaymentID,
		TenantID:         row.TenantID,
		CurrentStepIndex: row.CurrentStepIndex,
		Status:           entities.SagaStatus(row.Status),
		LockToken:        row.LockToken,
		LeaseDeadline:    row.LeaseDeadline,
		CancelRequested:  row.CancelRequested,
		DeadLettered:     row.DeadLettered,
		FailureReason:    row.FailureReason,
		SagaDeadline:     row.SagaDeadline,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		Steps:            steps,
	}
}

func toStepStateEntity(row *models.StepState) entities.StepState {
	return entities.StepState{
		ID:                 row.ID,
		SagaID:             row.SagaID,
		Name:               row.Name,
		Sequence:           row.Sequence,
		Attempt:            row.Attempt,
		Status:             entities.StepStatus(row.Status),
		LastError:          row.LastError,
		LastErrorKind:      row.LastErrorKind,
		NextRetryAt:        row.NextRetryAt,
		CompensationStatus: entities.CompensationStatus(row.CompensationStatus),
		CompensationAttempt: row.CompensationAttempt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func fromStepStateEntity(s *entities.StepState) *models.StepState {
	return &models.StepState{
		ID:                 s.ID,
		SagaID:             s.SagaID,
		Name:               s.Name,
		Sequence:           s.Sequence,
		Attempt:            s.Attempt,
		Status:             string(s.Status),
		LastError:          s.LastError,
		LastErrorKind:      s.LastErrorKind,
		NextRetryAt:        s.NextRetryAt,
		CompensationStatus: string(s.CompensationStatus),
		CompensationAttempt: s.CompensationAttempt,
		UpdatedAt:          s.UpdatedAt,
	}
}
