package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type outboxRepo struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) domainrepos.OutboxRepository {
	return &outboxRepo{db: db}
}

// Append inserts an outbox row. Callers wrap this in the same UnitOfWork.Do
// transaction as the state change that produced the event, so GetDB picks
// up the enclosing tx automatically.
func (r *outboxRepo) Append(ctx context.Context, record *entities.OutboxRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	row := &models.OutboxRecord{
		ID:          record.ID,
		AggregateID: record.AggregateID,
		TenantID:    record.TenantID,
		Sequence:    record.Sequence,
		Topic:       record.Topic,
		SchemaVer:   record.SchemaVer,
		Payload:     record.Payload,
		CreatedAt:   record.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(row).Error
}

// ListUnpublished returns the oldest unpublished records up to limit, for
// the outbox publisher's poll loop.
func (r *outboxRepo) ListUnpublished(ctx context.Context, limit int) ([]*entities.OutboxRecord, error) {
	var rows []models.OutboxRecord
	query := GetDB(ctx, r.db).Where("published_at IS NULL").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]*entities.OutboxRecord, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		records = append(records, &entities.OutboxRecord{
			ID:          row.ID,
			AggregateID: row.AggregateID,
			TenantID:    row.TenantID,
			Sequence:    row.Sequence,
			Topic:       row.Topic,
			SchemaVer:   row.SchemaVer,
			Payload:     row.Payload,
			CreatedAt:   row.CreatedAt,
			PublishedAt: row.PublishedAt,
		})
	}
	return records, nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return GetDB(ctx, r.db).Model(&models.OutboxRecord{}).
		Where("id IN ?", ids).
		Update("published_at", now).Error
}
