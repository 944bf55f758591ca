package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operator is the GORM row shape for entities.Operator: an internal
// ops/admin account, never an end-customer.
type Operator struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(32);not null;default:'read_only'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Operator) TableName() string { return "operators" }
