package dispatch

import (
	"sync"

	"github.com/google/uuid"
)

// WaiterRegistry lets a Synchronous-mode caller block on a channel until the
// Notify step signals that a conclusive pain.002 is ready, instead of
// polling the saga repository. Scoped to a single process: a synchronous
// request and the worker advancing its saga must run in the same instance,
// which is the case for the request-thread saga execution path (see
// SPEC_FULL.md §4.2's same-process synchronous fast path).
type WaiterRegistry struct {
	mu      sync.Mutex
	waiters map[uuid.UUID]chan struct{}
}

func NewWaiterRegistry() *WaiterRegistry {
	return &WaiterRegistry{waiters: make(map[uuid.UUID]chan struct{})}
}

// Register returns a channel that closes the next time Signal is called for
// paymentID. Must be called before the saga that will signal it begins
// executing, to avoid missing the signal.
func (r *WaiterRegistry) Register(paymentID uuid.UUID) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.waiters[paymentID]
	if !ok {
		ch = make(chan struct{})
		r.waiters[paymentID] = ch
	}
	return ch
}

// Signal closes the waiting channel for paymentID, if any caller registered
// one. Safe to call with no registered waiter (fire-and-forget sagas).
func (r *WaiterRegistry) Signal(paymentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.waiters[paymentID]
	if !ok {
		return
	}
	close(ch)
	delete(r.waiters, paymentID)
}

// Forget drops a registered waiter without signalling it, for callers that
// gave up waiting (request-budget expiry) so late signals don't leak.
func (r *WaiterRegistry) Forget(paymentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, paymentID)
}
