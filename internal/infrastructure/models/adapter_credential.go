package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdapterCredential is the GORM row shape for entities.AdapterCredential,
// adapted from the teacher's per-user ApiKey: the subject here is a
// clearing adapter, scoped to a tenant rather than a user.
type AdapterCredential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_adapter_cred_tenant"`
	AdapterID    string    `gorm:"type:varchar(64);not null;index:idx_adapter_cred_adapter"`
	Name         string    `gorm:"type:varchar(100);not null"`
	KeyPrefix    string    `gorm:"type:varchar(20);not null"`
	KeyHash      string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	SecretSealed string    `gorm:"type:text;not null"`
	SecretMasked string    `gorm:"type:varchar(20);not null"`
	IsActive     bool      `gorm:"default:true;not null"`
	LastUsedAt   *time.Time
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (AdapterCredential) TableName() string { return "adapter_credentials" }
