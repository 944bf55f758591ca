package models

import (
	"time"

	"github.com/google/uuid"
)

// UETRIndex backs duplicate-submission detection: a row is inserted the
// first time a UETR is seen and never expires, and the unique index on UETR
// makes a second insert attempt fail, which ReserveIfAbsent turns into a
// "not reserved" result rather than an error.
type UETRIndex struct {
	UETR      string    `gorm:"type:varchar(32);primaryKey"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"index:idx_uetr_index_created"`
}

func (UETRIndex) TableName() string { return "uetr_index" }
