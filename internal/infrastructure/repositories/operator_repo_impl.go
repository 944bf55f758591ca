package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type operatorRepo struct {
	db *gorm.DB
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *gorm.DB) domainrepos.OperatorRepository {
	return &operatorRepo{db: db}
}

func (r *operatorRepo) Create(ctx context.Context, op *entities.Operator) error {
	row := toOperatorModel(op)
	if err := GetDB(ctx, r.db).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	op.ID = row.ID
	op.CreatedAt = row.CreatedAt
	op.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *operatorRepo) GetByEmail(ctx context.Context, email string) (*entities.Operator, error) {
	var row models.Operator
	if err := GetDB(ctx, r.db).Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toOperatorEntity(&row), nil
}

func (r *operatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Operator, error) {
	var row models.Operator
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toOperatorEntity(&row), nil
}

func toOperatorModel(op *entities.Operator) *models.Operator {
	return &models.Operator{
		ID:           op.ID,
		Email:        op.Email,
		Name:         op.Name,
		PasswordHash: op.PasswordHash,
		Role:         string(op.Role),
	}
}

func toOperatorEntity(row *models.Operator) *entities.Operator {
	op := &entities.Operator{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         entities.OperatorRole(row.Role),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		op.DeletedAt = null.TimeFrom(row.DeletedAt.Time)
	}
	return op
}
