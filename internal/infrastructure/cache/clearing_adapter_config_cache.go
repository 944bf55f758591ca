package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/pkg/redis"
)

// adapterConfigTTL is short relative to tenantConfigCache's because there is
// no version counter to check early invalidation against; an operator
// rotating credentials or flipping Active waits out this TTL at worst.
const adapterConfigTTL = 10 * time.Second

// ClearingAdapterConfigCache serves ClearingAdapterConfigRepository.GetByID
// out of Redis on the per-payment clearing submission path, where a DB round
// trip per outbound call would otherwise dominate latency.
type ClearingAdapterConfigCache struct {
	repo domainrepos.ClearingAdapterConfigRepository
	ttl  time.Duration
}

// NewClearingAdapterConfigCache wraps repo with a short-TTL Redis cache.
func NewClearingAdapterConfigCache(repo domainrepos.ClearingAdapterConfigRepository) *ClearingAdapterConfigCache {
	return &ClearingAdapterConfigCache{repo: repo, ttl: adapterConfigTTL}
}

func adapterConfigKey(tenantID uuid.UUID, adapterID entities.ClearingAdapterID) string {
	return fmt.Sprintf("adapter-config:%s:%s", tenantID, adapterID)
}

func (c *ClearingAdapterConfigCache) Get(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) (*entities.ClearingAdapterConfig, error) {
	key := adapterConfigKey(tenantID, adapterID)
	if raw, err := redis.Get(ctx, key); err == nil {
		var cached entities.ClearingAdapterConfig
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return &cached, nil
		}
	}

	cfg, err := c.repo.GetByID(ctx, tenantID, adapterID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(cfg); err == nil {
		_ = redis.Set(ctx, key, raw, c.ttl)
	}
	return cfg, nil
}

// Invalidate drops the cached entry for one adapter, used after a config edit.
func (c *ClearingAdapterConfigCache) Invalidate(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) error {
	return redis.Del(ctx, adapterConfigKey(tenantID, adapterID))
}
