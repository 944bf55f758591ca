package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainrepos.PaymentRepository {
	return &paymentRepo{db: db}
}

// Create creates a new payment
func (r *paymentRepo) Create(ctx context.Context, payment *entities.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	row := fromPaymentEntity(payment)
	return GetDB(ctx, r.db).Create(row).Error
}

// GetByID gets a payment by ID, scoped to tenant
func (r *paymentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*entities.Payment, error) {
	var row models.Payment
	err := GetDB(ctx, r.db).Where("id = ? AND tenant_id = ?", id, tenantID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPaymentEntity(&row), nil
}

// GetByIdempotencyKey replays the original payment for a duplicate accept call
func (r *paymentRepo) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*entities.Payment, error) {
	var row models.Payment
	err := GetDB(ctx, r.db).Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPaymentEntity(&row), nil
}

// GetByUETR looks a payment up by its end-to-end transaction reference, not tenant-scoped
func (r *paymentRepo) GetByUETR(ctx context.Context, uetr entities.UETR) (*entities.Payment, error) {
	var row models.Payment
	err := GetDB(ctx, r.db).Where("uetr = ?", string(uetr)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPaymentEntity(&row), nil
}

// UpdateStatus transitions a payment's lifecycle status and reason
func (r *paymentRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status entities.PaymentStatus, reason entities.ReasonCode) error {
	result := GetDB(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"status":      string(status),
			"reason_code": string(reason),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetClearingRail records which rail the Route step resolved
func (r *paymentRepo) SetClearingRail(ctx context.Context, tenantID, id uuid.UUID, rail entities.ClearingRail) error {
	return GetDB(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"clearing_rail": string(rail), "updated_at": time.Now()}).Error
}

// SetTrackingRef records the rail-assigned tracking reference from SubmitToClearing
func (r *paymentRepo) SetTrackingRef(ctx context.Context, tenantID, id uuid.UUID, trackingRef string) error {
	return GetDB(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"tracking_ref": trackingRef, "updated_at": time.Now()}).Error
}

// SetRoutingCandidates persists the ordered adapter list the Route step resolved
func (r *paymentRepo) SetRoutingCandidates(ctx context.Context, tenantID, id uuid.UUID, candidates []entities.ClearingAdapterID) error {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{"routing_candidates": string(raw), "updated_at": time.Now()}).Error
}

// List returns a tenant's payments newest-first, paginated
func (r *paymentRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Payment, int, error) {
	var total int64
	db := GetDB(ctx, r.db).Model(&models.Payment{}).Where("tenant_id = ?", tenantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	query := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*entities.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, toPaymentEntity(&rows[i]))
	}
	return payments, int(total), nil
}

func fromPaymentEntity(p *entities.Payment) *models.Payment {
	candidates, _ := json.Marshal(p.RoutingCandidates)
	if len(candidates) == 0 {
		candidates = []byte("[]")
	}
	return &models.Payment{
		ID:                p.ID,
		TenantID:          p.TenantID,
		BusinessUnitID:    p.BusinessUnitID,
		CustomerID:        p.CustomerID,
		UETR:              string(p.UETR),
		IdempotencyKey:    p.IdempotencyKey,
		AmountMinorUnits:  p.Amount.MinorUnits,
		Currency:          p.Amount.Currency,
		DebtorAccount:     p.Debtor.Account,
		DebtorAgent:       p.Debtor.Agent,
		CreditorAccount:   p.Creditor.Account,
		CreditorAgent:     p.Creditor.Agent,
		PaymentType:       string(p.PaymentType),
		LocalInstrument:   p.LocalInstrument,
		Status:            string(p.Status),
		ReasonCode:        string(p.ReasonCode),
		ConfigVersion:     p.ConfigVersion,
		OriginalMsgID:     p.OriginalMsgID,
		EndToEndID:        p.EndToEndID,
		ClearingRail:      string(p.ClearingRail),
		TrackingRef:       p.TrackingRef,
		RoutingCandidates: string(candidates),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toPaymentEntity(m *models.Payment) *entities.Payment {
	var candidates []entities.ClearingAdapterID
	_ = json.Unmarshal([]byte(m.RoutingCandidates), &candidates)

	return &entities.Payment{
		ID:             m.ID,
		TenantID:       m.TenantID,
		BusinessUnitID: m.BusinessUnitID,
		CustomerID:     m.CustomerID,
		UETR:           entities.UETR(m.UETR),
		IdempotencyKey: m.IdempotencyKey,
		Amount:         entities.Money{MinorUnits: m.AmountMinorUnits, Currency: m.Currency},
		Debtor:         entities.Party{Account: m.DebtorAccount, Agent: m.DebtorAgent},
		Creditor:       entities.Party{Account: m.CreditorAccount, Agent: m.CreditorAgent},
		PaymentType:     entities.PaymentTypeCode(m.PaymentType),
		LocalInstrument: m.LocalInstrument,
		Status:          entities.PaymentStatus(m.Status),
		ReasonCode:      entities.ReasonCode(m.ReasonCode),
		ConfigVersion:   m.ConfigVersion,
		OriginalMsgID:   m.OriginalMsgID,
		EndToEndID:      m.EndToEndID,
		ClearingRail:    entities.ClearingRail(m.ClearingRail),
		TrackingRef:     m.TrackingRef,
		RoutingCandidates: candidates,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
