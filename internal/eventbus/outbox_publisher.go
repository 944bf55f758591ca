package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/pkg/metrics"
)

// OutboxPublisher drains the transactional outbox on a fixed tick, grounded
// on the teacher's PaymentRequestExpiryJob ticker-loop shape (select over
// ctx.Done/stop/ticker.C, one DB round trip per tick). Publishing is
// at-least-once: a record is marked published only after Bus.Publish
// returns nil, so a crash between publish and mark results in a harmless
// duplicate delivery rather than a lost event.
type OutboxPublisher struct {
	repo      repositories.OutboxRepository
	bus       Bus
	interval  time.Duration
	batchSize int
	stop      chan struct{}
	log       *zap.Logger
}

func NewOutboxPublisher(repo repositories.OutboxRepository, bus Bus, interval time.Duration, batchSize int, log *zap.Logger) *OutboxPublisher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPublisher{repo: repo, bus: bus, interval: interval, batchSize: batchSize, stop: make(chan struct{}), log: log}
}

func (p *OutboxPublisher) Start(ctx context.Context) {
	p.log.Info("eventbus: starting outbox publisher", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("eventbus: outbox publisher stopped (context cancelled)")
			return
		case <-p.stop:
			p.log.Info("eventbus: outbox publisher stopped")
			return
		case <-ticker.C:
			p.publishPending(ctx)
		}
	}
}

func (p *OutboxPublisher) Stop() {
	close(p.stop)
}

func (p *OutboxPublisher) publishPending(ctx context.Context) {
	records, err := p.repo.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		p.log.Error("eventbus: failed to list unpublished outbox records", zap.Error(err))
		return
	}
	metrics.SetOutboxBacklog(len(records))
	if len(records) == 0 {
		return
	}

	published := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		if err := p.bus.Publish(ctx, rec.Topic, rec.AggregateID.String(), rec.Payload); err != nil {
			p.log.Error("eventbus: failed to publish outbox record, will retry next tick",
				zap.String("recordId", rec.ID.String()), zap.String("topic", rec.Topic), zap.Error(err))
			continue
		}
		published = append(published, rec.ID)
	}
	if len(published) == 0 {
		return
	}
	if err := p.repo.MarkPublished(ctx, published); err != nil {
		p.log.Error("eventbus: failed to mark outbox records published, may redeliver", zap.Error(err))
	}
}
