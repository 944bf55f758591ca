// Package dispatch implements the steps.Dispatcher port: delivering a
// payment's pain.002 response per its tenant-configured response mode
// (Synchronous, Asynchronous callback, or KafkaTopic).
package dispatch

import (
	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
)

// TenantConfigProvider resolves the versioned tenant configuration a
// payment was accepted under. Satisfied directly by both
// repositories.TenantConfigRepository and the infrastructure cache wrapping
// it, so callers can inject either.
type TenantConfigProvider interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error)
}

// Publisher delivers a message to a topic, keyed for partition affinity.
// Implemented by internal/eventbus's Kafka producer; kept as a narrow local
// interface so this package never imports segmentio/kafka-go directly.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}
