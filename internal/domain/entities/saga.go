package entities

import (
	"time"

	"github.com/google/uuid"
)

// SagaStatus is the overall state of a saga instance.
type SagaStatus string

const (
	SagaStatusRunning      SagaStatus = "RUNNING"
	SagaStatusCompleted    SagaStatus = "COMPLETED"
	SagaStatusCompensating SagaStatus = "COMPENSATING"
	SagaStatusCompensated  SagaStatus = "COMPENSATED"
	SagaStatusFailed       SagaStatus = "FAILED"
)

// StepStatus is the state of one step within a saga.
type StepStatus string

const (
	StepStatusPending      StepStatus = "PENDING"
	StepStatusRunning      StepStatus = "RUNNING"
	StepStatusSucceeded    StepStatus = "SUCCEEDED"
	StepStatusFailed       StepStatus = "FAILED"
	StepStatusCompensating StepStatus = "COMPENSATING"
	StepStatusCompensated  StepStatus = "COMPENSATED"
	StepStatusSkipped      StepStatus = "SKIPPED"
)

// CompensationStatus tracks whether a step's undo action has run.
type CompensationStatus string

const (
	CompensationNotNeeded CompensationStatus = "NOT_NEEDED"
	CompensationPending   CompensationStatus = "PENDING"
	CompensationSucceeded CompensationStatus = "SUCCEEDED"
	CompensationFailed    CompensationStatus = "FAILED"
)

// StepState is one row-per-step record: name, attempt, status, last error,
// next retry time and compensation status. No pointer graphs; relations by id.
type StepState struct {
	ID                 uuid.UUID          `json:"id"`
	SagaID             uuid.UUID          `json:"sagaId"`
	Name               string             `json:"name"`
	Sequence           int                `json:"sequence"`
	Attempt            int                `json:"attempt"`
	Status             StepStatus         `json:"status"`
	LastError          string             `json:"lastError,omitempty"`
	LastErrorKind      string             `json:"lastErrorKind,omitempty"`
	NextRetryAt        *time.Time         `json:"nextRetryAt,omitempty"`
	CompensationStatus CompensationStatus `json:"compensationStatus"`
	CompensationAttempt int               `json:"compensationAttempt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Saga is the 1:1 durable state machine driving one Payment.
type Saga struct {
	ID               uuid.UUID  `json:"sagaId"`
	PaymentID        uuid.UUID  `json:"paymentId"`
	TenantID         uuid.UUID  `json:"tenantId"`
	CurrentStepIndex int        `json:"currentStepIndex"`
	Status           SagaStatus `json:"sagaStatus"`
	LockToken        string     `json:"-"`
	LeaseDeadline    time.Time  `json:"-"`
	CancelRequested  bool       `json:"cancelRequested"`
	DeadLettered     bool       `json:"deadLettered"`
	FailureReason    string     `json:"failureReason,omitempty"`
	SagaDeadline     time.Time  `json:"sagaDeadline"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	Steps []StepState `json:"steps,omitempty"`
}

// HasLiveLease reports whether the saga's lease has not yet expired.
func (s *Saga) HasLiveLease(now time.Time) bool {
	return s.LockToken != "" && now.Before(s.LeaseDeadline)
}

// AllStepsDone reports whether every step has reached Succeeded or Skipped,
// the precondition for SagaStatus=Completed.
func (s *Saga) AllStepsDone() bool {
	if len(s.Steps) == 0 {
		return false
	}
	for _, st := range s.Steps {
		if st.Status != StepStatusSucceeded && st.Status != StepStatusSkipped {
			return false
		}
	}
	return true
}

// AllCompensationsDone reports whether every step that ever succeeded has a
// Succeeded compensation, the precondition for SagaStatus=Compensated.
func (s *Saga) AllCompensationsDone() bool {
	for _, st := range s.Steps {
		if st.CompensationStatus == CompensationPending || st.CompensationStatus == CompensationFailed {
			return false
		}
	}
	return true
}
