package clearing

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/pkg/metrics"
)

// circuitState mirrors the three-state circuit breaker pattern: closed
// (normal), open (failing fast) and half-open (probing for recovery).
type circuitState int32

const (
	circuitClosed circuitState = iota
	circuitHalfOpen
	circuitOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitHalfOpen:
		return "half-open"
	case circuitOpen:
		return "open"
	default:
		return "unknown"
	}
}

// circuitBreaker protects a single clearing adapter. Failure/success counts
// and state are atomics so Allow/RecordSuccess/RecordFailure never block a concurrent saga
// worker submitting to the same adapter.
type circuitBreaker struct {
	adapterID       entities.ClearingAdapterID
	maxFailures     int32
	resetTimeout    time.Duration
	halfOpenNeeded  int32
	state           int32
	failures        int32
	halfOpenSuccess int32
	lastFailureNS   int64
	log             *zap.Logger
}

func newCircuitBreaker(adapterID entities.ClearingAdapterID, cfg entities.CircuitBreakerConfig, log *zap.Logger) *circuitBreaker {
	maxFailures := cfg.FailureThreshold
	if maxFailures <= 0 {
		maxFailures = 5
	}
	resetTimeout := cfg.OpenDuration
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	halfOpenNeeded := cfg.HalfOpenSuccesses
	if halfOpenNeeded <= 0 {
		halfOpenNeeded = 2
	}
	return &circuitBreaker{
		adapterID:      adapterID,
		maxFailures:    maxFailures,
		resetTimeout:   resetTimeout,
		halfOpenNeeded: halfOpenNeeded,
		log:            log,
	}
}

// Allow reports whether a call may proceed, transitioning open->half-open
// once resetTimeout has elapsed since the last recorded failure.
func (cb *circuitBreaker) Allow() bool {
	switch circuitState(atomic.LoadInt32(&cb.state)) {
	case circuitClosed, circuitHalfOpen:
		return true
	case circuitOpen:
		last := atomic.LoadInt64(&cb.lastFailureNS)
		if time.Since(time.Unix(0, last)) > cb.resetTimeout {
			if atomic.CompareAndSwapInt32(&cb.state, int32(circuitOpen), int32(circuitHalfOpen)) {
				atomic.StoreInt32(&cb.halfOpenSuccess, 0)
				cb.log.Info("circuit half-open", zap.String("adapterId", string(cb.adapterID)))
				metrics.SetAdapterCircuitState(string(cb.adapterID), circuitHalfOpen.String())
			}
			return true
		}
		return false
	default:
		return false
	}
}

// IsDegraded implements routing.CircuitProbe: the resolver deprioritises a
// degraded adapter without dropping it.
func (cb *circuitBreaker) IsDegraded() bool {
	return circuitState(atomic.LoadInt32(&cb.state)) == circuitOpen
}

func (cb *circuitBreaker) RecordSuccess() {
	switch circuitState(atomic.LoadInt32(&cb.state)) {
	case circuitClosed:
		atomic.StoreInt32(&cb.failures, 0)
	case circuitHalfOpen:
		successes := atomic.AddInt32(&cb.halfOpenSuccess, 1)
		if successes >= cb.halfOpenNeeded {
			if atomic.CompareAndSwapInt32(&cb.state, int32(circuitHalfOpen), int32(circuitClosed)) {
				atomic.StoreInt32(&cb.failures, 0)
				cb.log.Info("circuit closed", zap.String("adapterId", string(cb.adapterID)))
				metrics.SetAdapterCircuitState(string(cb.adapterID), circuitClosed.String())
			}
		}
	}
}

func (cb *circuitBreaker) RecordFailure() {
	atomic.StoreInt64(&cb.lastFailureNS, time.Now().UnixNano())
	switch circuitState(atomic.LoadInt32(&cb.state)) {
	case circuitClosed:
		if atomic.AddInt32(&cb.failures, 1) >= cb.maxFailures {
			if atomic.CompareAndSwapInt32(&cb.state, int32(circuitClosed), int32(circuitOpen)) {
				cb.log.Warn("circuit open", zap.String("adapterId", string(cb.adapterID)))
				metrics.SetAdapterCircuitState(string(cb.adapterID), circuitOpen.String())
			}
		}
	case circuitHalfOpen:
		if atomic.CompareAndSwapInt32(&cb.state, int32(circuitHalfOpen), int32(circuitOpen)) {
			atomic.StoreInt32(&cb.failures, 0)
			cb.log.Warn("circuit reopened from half-open", zap.String("adapterId", string(cb.adapterID)))
			metrics.SetAdapterCircuitState(string(cb.adapterID), circuitOpen.String())
		}
	}
}

// circuitBreakerRegistry lazily builds and caches one breaker per adapter.
// A cached breaker keeps the thresholds of the config it was first built
// from; a later change to the adapter's CircuitBreakerConfig is not applied.
type circuitBreakerRegistry struct {
	mu       sync.Mutex
	breakers map[entities.ClearingAdapterID]*circuitBreaker
	log      *zap.Logger
}

func newCircuitBreakerRegistry(log *zap.Logger) *circuitBreakerRegistry {
	return &circuitBreakerRegistry{breakers: map[entities.ClearingAdapterID]*circuitBreaker{}, log: log}
}

func (r *circuitBreakerRegistry) get(cfg *entities.ClearingAdapterConfig) *circuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[cfg.AdapterID]
	if !ok {
		cb = newCircuitBreaker(cfg.AdapterID, cfg.CircuitBreaker, r.log)
		r.breakers[cfg.AdapterID] = cb
	}
	return cb
}

// IsDegraded implements routing.CircuitProbe over the whole registry.
func (r *circuitBreakerRegistry) IsDegraded(adapterID entities.ClearingAdapterID) bool {
	r.mu.Lock()
	cb, ok := r.breakers[adapterID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return cb.IsDegraded()
}
