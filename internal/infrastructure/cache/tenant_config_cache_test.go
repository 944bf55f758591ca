package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/pkg/redis"
)

func setupMiniredis(t *testing.T) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
}

type fakeTenantConfigRepo struct {
	configs map[uuid.UUID]*entities.TenantConfig
	calls   int
}

func (f *fakeTenantConfigRepo) GetConfig(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error) {
	f.calls++
	cfg, ok := f.configs[tenantID]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return cfg, nil
}

func (f *fakeTenantConfigRepo) GetVersion(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	cfg, ok := f.configs[tenantID]
	if !ok {
		return 0, domainerrors.ErrNotFound
	}
	return cfg.Version, nil
}

func TestTenantConfigCache_GetPopulatesAndReusesCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()
	tenantID := uuid.New()
	repo := &fakeTenantConfigRepo{configs: map[uuid.UUID]*entities.TenantConfig{
		tenantID: {TenantID: tenantID, Version: 1, Status: entities.TenantStatusActive},
	}}
	c := NewTenantConfigCache(repo)

	cfg, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Version)
	assert.Equal(t, 1, repo.calls)

	// Second call hits the cache; GetConfig is not called again.
	cfg, err = c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Version)
	assert.Equal(t, 1, repo.calls)
}

func TestTenantConfigCache_VersionBumpInvalidatesCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()
	tenantID := uuid.New()
	repo := &fakeTenantConfigRepo{configs: map[uuid.UUID]*entities.TenantConfig{
		tenantID: {TenantID: tenantID, Version: 1, Status: entities.TenantStatusActive},
	}}
	c := NewTenantConfigCache(repo)

	_, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	repo.configs[tenantID].Version = 2
	cfg, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cfg.Version)
	assert.Equal(t, 2, repo.calls)
}

func TestTenantConfigCache_Invalidate(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()
	tenantID := uuid.New()
	repo := &fakeTenantConfigRepo{configs: map[uuid.UUID]*entities.TenantConfig{
		tenantID: {TenantID: tenantID, Version: 1, Status: entities.TenantStatusActive},
	}}
	c := NewTenantConfigCache(repo)

	_, err := c.Get(ctx, tenantID)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, tenantID))

	_, err = c.Get(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
