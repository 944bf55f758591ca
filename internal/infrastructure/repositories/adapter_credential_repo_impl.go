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

type adapterCredentialRepo struct {
	db *gorm.DB
}

// NewAdapterCredentialRepository creates a new adapter credential repository
func NewAdapterCredentialRepository(db *gorm.DB) domainrepos.AdapterCredentialRepository {
	return &adapterCredentialRepo{db: db}
}

func (r *adapterCredentialRepo) Create(ctx context.Context, cred *entities.AdapterCredential) error {
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	now := time.Now()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	return GetDB(ctx, r.db).Create(fromAdapterCredentialEntity(cred)).Error
}

func (r *adapterCredentialRepo) GetByKeyHash(ctx context.Context, keyHash string) (*entities.AdapterCredential, error) {
	var row models.AdapterCredential
	err := GetDB(ctx, r.db).Where("key_hash = ? AND is_active = ?", keyHash, true).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAdapterCredentialEntity(&row), nil
}

func (r *adapterCredentialRepo) ListByAdapter(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) ([]*entities.AdapterCredential, error) {
	var rows []models.AdapterCredential
	err := GetDB(ctx, r.db).Where("tenant_id = ? AND adapter_id = ?", tenantID, string(adapterID)).
		Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	creds := make([]*entities.AdapterCredential, 0, len(rows))
	for i := range rows {
		creds = append(creds, toAdapterCredentialEntity(&rows[i]))
	}
	return creds, nil
}

func (r *adapterCredentialRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.AdapterCredential{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func fromAdapterCredentialEntity(c *entities.AdapterCredential) *models.AdapterCredential {
	return &models.AdapterCredential{
		ID:           c.ID,
		TenantID:     c.TenantID,
		AdapterID:    string(c.AdapterID),
		Name:         c.Name,
		KeyPrefix:    c.KeyPrefix,
		KeyHash:      c.KeyHash,
		SecretSealed: c.SecretSealed,
		SecretMasked: c.SecretMasked,
		IsActive:     c.IsActive,
		LastUsedAt:   c.LastUsedAt,
		ExpiresAt:    c.ExpiresAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toAdapterCredentialEntity(m *models.AdapterCredential) *entities.AdapterCredential {
	return &entities.AdapterCredential{
		ID:           m.ID,
		TenantID:     m.TenantID,
		AdapterID:    entities.ClearingAdapterID(m.AdapterID),
		Name:         m.Name,
		KeyPrefix:    m.KeyPrefix,
		KeyHash:      m.KeyHash,
		SecretSealed: m.SecretSealed,
		SecretMasked: m.SecretMasked,
		IsActive:     m.IsActive,
		LastUsedAt:   m.LastUsedAt,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
