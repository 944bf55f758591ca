package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantConfig is the GORM row shape for entities.TenantConfig. The
// payment-type map and feature flags are stored as JSON text columns,
// following the same marshalled-nested-structure pattern the teacher uses
// for RoutePolicy.FallbackOrder, since GORM has no portable (Postgres and
// SQLite) native map column type.
type TenantConfig struct {
	TenantID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version         int64     `gorm:"not null;default:1"`
	Status          string    `gorm:"type:varchar(16);not null;default:'ACTIVE'"`
	PaymentTypesRaw string    `gorm:"column:payment_types;type:jsonb;not null;default:'{}'"`
	FeaturesRaw     string    `gorm:"column:features;type:jsonb;not null;default:'{}'"`
	DefaultRail     string    `gorm:"type:varchar(16)"`
	UpdatedAt       time.Time
}

func (TenantConfig) TableName() string { return "tenant_configs" }
