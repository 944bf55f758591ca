package repositories

import (
	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// OperatorRepository is the system-of-record for internal ops/admin accounts
// that authenticate against the dead-letter, adapter-credential and tenant
// config surfaces.
type OperatorRepository interface {
	Create(ctx context.Context, op *entities.Operator) error
	GetByEmail(ctx context.Context, email string) (*entities.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Operator, error)
}
