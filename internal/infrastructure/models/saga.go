package models

import (
	"time"

	"github.com/google/uuid"
)

// Saga is the GORM row shape for entities.Saga. LockToken/LeaseDeadline
// back the lease-based mutual exclusion AcquireLease/RenewLease/
// ReleaseLease perform as a compare-and-swap.
type Saga struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saga_payment"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index:idx_saga_tenant"`
	CurrentStepIndex int       `gorm:"not null;default:0"`
	Status           string    `gorm:"type:varchar(16);not null;index:idx_saga_status"`
	LockToken        string    `gorm:"type:varchar(64)"`
	LeaseDeadline    time.Time
	CancelRequested  bool `gorm:"not null;default:false"`
	DeadLettered     bool `gorm:"not null;default:false;index:idx_saga_dead_letter"`
	FailureReason    string `gorm:"type:text"`
	SagaDeadline     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Saga) TableName() string { return "sagas" }

// StepState is the GORM row shape for entities.StepState, one row per
// (SagaID, Name).
type StepState struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	SagaID             uuid.UUID `gorm:"type:uuid;not null;index:idx_step_state_saga"`
	Name               string    `gorm:"type:varchar(32);not null"`
	Sequence           int       `gorm:"not null"`
	Attempt            int       `gorm:"not null;default:0"`
	Status             string    `gorm:"type:varchar(16);not null"`
	LastError          string    `gorm:"type:text"`
	LastErrorKind      string    `gorm:"type:varchar(32)"`
	NextRetryAt        *time.Time `gorm:"index:idx_step_state_retry"`
	CompensationStatus string    `gorm:"type:varchar(16);not null;default:'NOT_NEEDED'"`
	CompensationAttempt int      `gorm:"not null;default:0"`
	UpdatedAt          time.Time
}

func (StepState) TableName() string { return "saga_step_states" }
