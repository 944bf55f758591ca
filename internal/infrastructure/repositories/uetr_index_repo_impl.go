package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type uetrIndexRepo struct {
	db *gorm.DB
}

// NewUETRIndexRepository creates a new UETR index repository
func NewUETRIndexRepository(db *gorm.DB) domainrepos.UETRIndexRepository {
	return &uetrIndexRepo{db: db}
}

// ReserveIfAbsent inserts the UETR row if no row exists yet; the unique
// index on uetr turns any later attempt for the same UETR into a
// constraint violation here, which we treat as "not reserved" rather than
// surfacing a DB error up to the caller.
func (r *uetrIndexRepo) ReserveIfAbsent(ctx context.Context, uetr entities.UETR, paymentID uuid.UUID) (bool, error) {
	row := &models.UETRIndex{
		UETR:      string(uetr),
		PaymentID: paymentID,
		CreatedAt: time.Now(),
	}
	err := GetDB(ctx, r.db).Create(row).Error
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// Lookup resolves a UETR carried on an inbound clearing-rail callback back
// to the internal PaymentID ReserveIfAbsent recorded at acceptance.
func (r *uetrIndexRepo) Lookup(ctx context.Context, uetr entities.UETR) (uuid.UUID, bool, error) {
	var row models.UETRIndex
	err := GetDB(ctx, r.db).Where("uetr = ?", string(uetr)).First(&row).Error
	if err == nil {
		return row.PaymentID, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	return uuid.Nil, false, err
}
