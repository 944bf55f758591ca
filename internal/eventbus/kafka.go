package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer wraps a kafka.Writer, grounded on the corpus's standard
// segmentio/kafka-go producer shape: one shared *kafka.Writer addressed at
// the broker list, LeastBytes balancing across partitions, synchronous
// RequireOne acks so a publish error surfaces to the caller instead of
// being silently buffered.
type KafkaProducer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

type KafkaConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
}

func NewKafkaProducer(cfg KafkaConfig, log *zap.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("eventbus: no kafka brokers configured")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	log.Info("eventbus: kafka producer configured", zap.Strings("brokers", cfg.Brokers))
	return &KafkaProducer{writer: writer, log: log}, nil
}

func (p *KafkaProducer) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("eventbus: publish failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("eventbus: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
