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

// localTTL is the Redis expiry of a cached snapshot. The version check in
// Get runs on every call regardless, so the TTL only bounds how long an
// unused entry lingers; the saving is that GetVersion replaces a full
// GetConfig read while the version is unchanged.
const localTTL = 30 * time.Second

// TenantConfigCache serves TenantConfigRepository.GetConfig out of Redis,
// falling back to the repository on a miss or a version mismatch. Every Get
// checks the cached Version against the repository's current GetVersion so
// a config edit becomes visible within one GetVersion round trip, not localTTL.
type TenantConfigCache struct {
	repo domainrepos.TenantConfigRepository
	ttl  time.Duration
}

// NewTenantConfigCache wraps repo with a Redis-backed versioned cache.
func NewTenantConfigCache(repo domainrepos.TenantConfigRepository) *TenantConfigCache {
	return &TenantConfigCache{repo: repo, ttl: localTTL}
}

func tenantConfigKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenant-config:%s", tenantID)
}

// Get returns the tenant's config, consulting Redis first. A cached entry is
// used only if its Version still matches the repository's current
// GetVersion, so a config bump is observed immediately rather than after
// the cache entry's TTL elapses.
func (c *TenantConfigCache) Get(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error) {
	currentVersion, err := c.repo.GetVersion(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	key := tenantConfigKey(tenantID)
	if raw, err := redis.Get(ctx, key); err == nil {
		var cached entities.TenantConfig
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil && cached.Version == currentVersion {
			return &cached, nil
		}
	}

	cfg, err := c.repo.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(cfg); err == nil {
		_ = redis.Set(ctx, key, raw, c.ttl)
	}
	return cfg, nil
}

// Invalidate drops the cached entry, used by config-admin flows right after
// a write so the next Get doesn't serve a response that predates it even
// within the version-check window.
func (c *TenantConfigCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return redis.Del(ctx, tenantConfigKey(tenantID))
}
