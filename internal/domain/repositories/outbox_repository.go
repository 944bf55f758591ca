package repositories

import (
	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// OutboxRepository persists domain events in the same transaction as the
// state change that produced them (the caller wraps both calls in a
// UnitOfWork.Do), and lets the publisher worker claim unpublished batches.
type OutboxRepository interface {
	Append(ctx context.Context, record *entities.OutboxRecord) error
	ListUnpublished(ctx context.Context, limit int) ([]*entities.OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
