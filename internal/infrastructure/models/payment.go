package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment is the GORM row shape for entities.Payment. Amount is kept as
// minor units (int64) rather than a decimal column, matching the
// fixed-point Money representation the domain layer already uses.
type Payment struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID `gorm:"type:uuid;not null;index:idx_payments_tenant"`
	BusinessUnitID    string    `gorm:"type:varchar(64)"`
	CustomerID        string    `gorm:"type:varchar(128)"`
	UETR              string    `gorm:"type:varchar(32);uniqueIndex"`
	IdempotencyKey    string    `gorm:"type:varchar(128);index:idx_payments_idem"`
	AmountMinorUnits  int64     `gorm:"not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	DebtorAccount     string    `gorm:"type:varchar(64);not null"`
	DebtorAgent       string    `gorm:"type:varchar(16)"`
	CreditorAccount   string    `gorm:"type:varchar(64);not null"`
	CreditorAgent     string    `gorm:"type:varchar(16)"`
	PaymentType       string    `gorm:"type:varchar(32);not null;index:idx_payments_type"`
	LocalInstrument   string    `gorm:"type:varchar(32)"`
	Status            string    `gorm:"type:varchar(32);not null;index:idx_payments_status"`
	ReasonCode        string    `gorm:"type:varchar(8)"`
	ConfigVersion     int64
	OriginalMsgID     string `gorm:"type:varchar(64)"`
	EndToEndID        string `gorm:"type:varchar(64)"`
	ClearingRail      string `gorm:"type:varchar(16)"`
	TrackingRef       string `gorm:"type:varchar(64)"`
	RoutingCandidates string `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Payment) TableName() string { return "payments" }
