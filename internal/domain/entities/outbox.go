package entities

import (
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is written in the same transaction as the state change that
// produced it, and published at-least-once by a separate publisher worker.
type OutboxRecord struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregateId"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Sequence    int64      `json:"sequence"`
	Topic       string     `json:"topic"`
	SchemaVer   string     `json:"schemaVersion"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// DomainEvent is the envelope every event topic payload carries, per spec §6.
type DomainEvent struct {
	EventID       uuid.UUID `json:"eventId"`
	OccurredAt    time.Time `json:"occurredAt"`
	TenantID      uuid.UUID `json:"tenantId"`
	AggregateID   uuid.UUID `json:"aggregateId"`
	Sequence      int64     `json:"sequence"`
	SchemaVersion string    `json:"schemaVersion"`
	Payload       any       `json:"payload"`
}

// Well-known topic names emitted by the core, per spec §4.6.
const (
	TopicPaymentInitiated = "payment.initiated.v1"
	TopicPaymentValidated = "payment.validated.v1"
	TopicPaymentFailed    = "payment.failed.v1"
	TopicPaymentCompleted = "payment.completed.v1"
	TopicTransactionCreated   = "transaction.created.v1"
	TopicTransactionCompleted = "transaction.completed.v1"
	TopicSagaStarted   = "saga.started.v1"
	TopicSagaCompleted = "saga.completed.v1"
)

// ResponseTopic derives the per-(tenant,paymentType) Kafka response topic
// name, per spec §4.5/§6. An explicit override always wins.
func ResponseTopic(tenantID uuid.UUID, paymentType PaymentTypeCode, override string) string {
	if override != "" {
		return override
	}
	return "payment-engine." + tenantID.String() + ".responses." + string(paymentType) + ".pain002"
}
