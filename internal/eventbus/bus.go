// Package eventbus publishes domain events and dispatcher responses onto
// Kafka, and drains the transactional outbox that feeds it.
package eventbus

import "context"

// Bus is the facade every producer in this module depends on — satisfied
// by *KafkaProducer in production and a fake in tests. Kept narrower than
// the segmentio client so callers never import kafka-go directly.
type Bus interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}
