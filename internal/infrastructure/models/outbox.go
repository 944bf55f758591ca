package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is the GORM row shape for entities.OutboxRecord: appended in
// the same transaction as the state change that produced it (see
// UnitOfWork.Do), published at-least-once by a separate worker.
type OutboxRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AggregateID uuid.UUID `gorm:"type:uuid;not null;index:idx_outbox_aggregate"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null"`
	Sequence    int64     `gorm:"not null"`
	Topic       string    `gorm:"type:varchar(255);not null"`
	SchemaVer   string    `gorm:"type:varchar(16);not null"`
	Payload     []byte    `gorm:"type:bytea;not null"`
	CreatedAt   time.Time
	PublishedAt *time.Time `gorm:"index:idx_outbox_published"`
}

func (OutboxRecord) TableName() string { return "outbox_records" }
