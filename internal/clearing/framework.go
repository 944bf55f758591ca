package clearing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/saga"
)

// Framework implements steps.ClearingFramework: every Submit call passes
// through a per-adapter middleware chain (rate limit, circuit breaker,
// bounded in-call retry, per-attempt timeout) before reaching the
// rail-specific RailClient; AwaitResult passes through the circuit breaker
// only. The saga's own retry/backoff still governs retries *across*
// step executions; this in-call retry only absorbs a single flaky dial.
type Framework struct {
	configs  repositories.ClearingAdapterConfigRepository
	rails    map[entities.ClearingRail]RailClient
	breakers *circuitBreakerRegistry
	limiter  *RateLimiter
	log      *zap.Logger

	mu     sync.RWMutex
	known  map[entities.ClearingAdapterID]*entities.ClearingAdapterConfig
}

func NewFramework(configs repositories.ClearingAdapterConfigRepository, rails []RailClient, limiter *RateLimiter, log *zap.Logger) *Framework {
	byRail := make(map[entities.ClearingRail]RailClient, len(rails))
	for _, rc := range rails {
		byRail[rc.Rail()] = rc
	}
	return &Framework{
		configs:  configs,
		rails:    byRail,
		breakers: newCircuitBreakerRegistry(log),
		limiter:  limiter,
		log:      log,
		known:    map[entities.ClearingAdapterID]*entities.ClearingAdapterConfig{},
	}
}

// Breakers exposes the circuit breaker registry as a routing.CircuitProbe so
// the routing resolver can deprioritise adapters this framework has tripped.
func (f *Framework) Breakers() *circuitBreakerRegistry { return f.breakers }

func (f *Framework) resolve(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) (*entities.ClearingAdapterConfig, RailClient, error) {
	cfg, err := f.configs.GetByID(ctx, tenantID, adapterID)
	if err != nil {
		return nil, nil, domainerrors.Config("clearing adapter config not found: "+string(adapterID), err)
	}
	if !cfg.Active {
		return nil, nil, domainerrors.Config("clearing adapter is deactivated: "+string(adapterID), nil)
	}
	rail, ok := f.rails[cfg.Rail]
	if !ok {
		return nil, nil, domainerrors.Config("no rail client registered for rail "+string(cfg.Rail), nil)
	}
	f.mu.Lock()
	f.known[adapterID] = cfg
	f.mu.Unlock()
	return cfg, rail, nil
}

// Capabilities reports what a previously-resolved adapter supports. The
// saga step calls this immediately before Submit for the same adapter on
// the happy path, and again during Compensate after at least one Submit has
// run, so the known-adapter cache populated by resolve is always warm by
// then; a cold lookup (no prior Submit/AwaitResult this process) returns an
// error, which callers treat as "assume not cancellable".
func (f *Framework) Capabilities(ctx context.Context, adapterID entities.ClearingAdapterID) (entities.AdapterCapabilities, error) {
	f.mu.RLock()
	cfg, ok := f.known[adapterID]
	f.mu.RUnlock()
	if !ok {
		return entities.AdapterCapabilities{}, domainerrors.Config("clearing adapter capabilities not yet known: "+string(adapterID), nil)
	}
	return entities.AdapterCapabilities{Rail: cfg.Rail, SupportsCancel: cfg.SupportsCancel, Synchronous: cfg.Synchronous}, nil
}

func (f *Framework) Submit(ctx context.Context, adapterID entities.ClearingAdapterID, p *entities.Payment) (entities.ClearingOutcome, error) {
	cfg, rail, err := f.resolve(ctx, p.TenantID, adapterID)
	if err != nil {
		return entities.ClearingOutcome{}, err
	}

	if f.limiter != nil {
		allowed, err := f.limiter.Allow(ctx, p.TenantID.String(), adapterID, cfg.RateLimit)
		if err != nil {
			f.log.Warn("rate limiter unavailable, failing open", zap.Error(err))
		} else if !allowed {
			return entities.ClearingOutcome{}, domainerrors.AdapterUnavailable("rate limit exceeded for adapter "+string(adapterID), nil)
		}
	}

	cb := f.breakers.get(cfg)
	if !cb.Allow() {
		return entities.ClearingOutcome{}, domainerrors.AdapterUnavailable("circuit open for adapter "+string(adapterID), nil)
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxAttempts := cfg.Retries.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoffBase := cfg.Retries.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	backoffCap := cfg.Retries.BackoffCap
	if backoffCap <= 0 {
		backoffCap = 2 * time.Second
	}

	var outcome entities.ClearingOutcome
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		outcome, lastErr = rail.Submit(callCtx, cfg, p)
		cancel()
		if lastErr == nil {
			cb.RecordSuccess()
			return outcome, nil
		}
		ae := domainerrors.AsAppError(lastErr)
		if !ae.Retryable() {
			cb.RecordFailure()
			return entities.ClearingOutcome{}, lastErr
		}
		cb.RecordFailure()
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return entities.ClearingOutcome{}, domainerrors.AdapterUnavailable("submit timed out", ctx.Err())
		case <-time.After(saga.Backoff(backoffBase, backoffCap, attempt)):
		}
	}
	return entities.ClearingOutcome{}, lastErr
}

func (f *Framework) AwaitResult(ctx context.Context, adapterID entities.ClearingAdapterID, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	cfg, rail, err := f.resolve(ctx, p.TenantID, adapterID)
	if err != nil {
		return entities.ClearingOutcome{}, false, err
	}

	cb := f.breakers.get(cfg)
	if !cb.Allow() {
		return entities.ClearingOutcome{}, false, domainerrors.AdapterUnavailable("circuit open for adapter "+string(adapterID), nil)
	}

	outcome, final, err := rail.Poll(ctx, cfg, p)
	if err != nil {
		cb.RecordFailure()
		return entities.ClearingOutcome{}, false, err
	}
	cb.RecordSuccess()
	return outcome, final, nil
}
