package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
)

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []*entities.OutboxRecord
	published []uuid.UUID
}

func (r *fakeOutboxRepo) Append(ctx context.Context, record *entities.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, record)
	return nil
}

func (r *fakeOutboxRepo) ListUnpublished(ctx context.Context, limit int) ([]*entities.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.OutboxRecord, len(r.pending))
	copy(out, r.pending)
	return out, nil
}

func (r *fakeOutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	published := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		published[id] = true
	}
	r.published = append(r.published, ids...)
	remaining := r.pending[:0]
	for _, rec := range r.pending {
		if !published[rec.ID] {
			remaining = append(remaining, rec)
		}
	}
	r.pending = remaining
	return nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []string
	failTopic string
}

func (b *fakeBus) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if topic == b.failTopic {
		return assertErr
	}
	b.published = append(b.published, topic)
	return nil
}

func (b *fakeBus) Close() error { return nil }

var assertErr = &publishError{"simulated publish failure"}

type publishError struct{ msg string }

func (e *publishError) Error() string { return e.msg }

func TestOutboxPublisher_PublishesAndMarksPublished(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*entities.OutboxRecord{
		{ID: uuid.New(), AggregateID: uuid.New(), Topic: entities.TopicPaymentCompleted, Payload: []byte("{}")},
	}}
	bus := &fakeBus{}
	pub := NewOutboxPublisher(repo, bus, 10*time.Millisecond, 10, zap.NewNop())

	pub.publishPending(context.Background())

	assert.Len(t, bus.published, 1)
	repo.mu.Lock()
	assert.Empty(t, repo.pending)
	assert.Len(t, repo.published, 1)
	repo.mu.Unlock()
}

func TestOutboxPublisher_FailedPublishLeavesRecordPending(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*entities.OutboxRecord{
		{ID: uuid.New(), AggregateID: uuid.New(), Topic: "bad.topic", Payload: []byte("{}")},
	}}
	bus := &fakeBus{failTopic: "bad.topic"}
	pub := NewOutboxPublisher(repo, bus, 10*time.Millisecond, 10, zap.NewNop())

	pub.publishPending(context.Background())

	repo.mu.Lock()
	assert.Len(t, repo.pending, 1)
	assert.Empty(t, repo.published)
	repo.mu.Unlock()
}

func TestOutboxPublisher_StartStopsOnStopChannel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := &fakeBus{}
	pub := NewOutboxPublisher(repo, bus, 5*time.Millisecond, 10, zap.NewNop())

	done := make(chan struct{})
	go func() {
		pub.Start(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	pub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestOutboxPublisher_StartStopsOnContextCancel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := &fakeBus{}
	pub := NewOutboxPublisher(repo, bus, 5*time.Millisecond, 10, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pub.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancel")
	}
	require.NoError(t, nil)
}
