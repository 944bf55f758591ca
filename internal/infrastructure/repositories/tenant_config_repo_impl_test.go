package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/infrastructure/models"
)

func TestTenantConfigRepository_GetConfig(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.TenantConfig{}, &models.RoutingRule{}, &models.ClearingAdapterConfig{}))
	repo := NewTenantConfigRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	row := &models.TenantConfig{
		TenantID:        tenantID,
		Version:         3,
		Status:          "ACTIVE",
		PaymentTypesRaw: `{"RTP":{"tenantId":"` + tenantID.String() + `","code":"RTP","responseMode":"SYNCHRONOUS","maxAmount":{"minorUnits":1000000,"currency":"ZAR"}}}`,
		FeaturesRaw:     `{"fraudScoringEnabled":true,"autoFailoverEnabled":false}`,
		DefaultRail:     "BANKSERV",
	}
	require.NoError(t, db.Create(row).Error)

	ruleID := uuid.New()
	require.NoError(t, db.Create(&models.RoutingRule{
		ID:            ruleID,
		TenantID:      tenantID,
		PaymentType:   "RTP",
		CandidatesRaw: `["bankserv-primary"]`,
		Priority:      10,
	}).Error)

	cfg, err := repo.GetConfig(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Version)
	assert.True(t, cfg.Features.FraudScoringEnabled)
	ptc, ok := cfg.PaymentType("RTP")
	require.True(t, ok)
	assert.Equal(t, "SYNCHRONOUS", string(ptc.ResponseMode))
	require.Len(t, cfg.RoutingRules, 1)
	assert.Equal(t, ruleID, cfg.RoutingRules[0].ID)
}

func TestTenantConfigRepository_GetConfig_NotFound(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.TenantConfig{}))
	repo := NewTenantConfigRepository(db)

	_, err := repo.GetConfig(context.Background(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTenantConfigRepository_GetVersion(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.TenantConfig{}))
	repo := NewTenantConfigRepository(db)

	tenantID := uuid.New()
	require.NoError(t, db.Create(&models.TenantConfig{
		TenantID:        tenantID,
		Version:         7,
		Status:          "ACTIVE",
		PaymentTypesRaw: "{}",
		FeaturesRaw:     "{}",
	}).Error)

	v, err := repo.GetVersion(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestRoutingRuleRepository_ListByTenant(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.RoutingRule{}))
	repo := NewRoutingRuleRepository(db)

	tenantID := uuid.New()
	require.NoError(t, db.Create(&models.RoutingRule{
		ID: uuid.New(), TenantID: tenantID, PaymentType: "RTP",
		CandidatesRaw: `["bankserv-primary","rtc-backup"]`, Priority: 5,
	}).Error)
	require.NoError(t, db.Create(&models.RoutingRule{
		ID: uuid.New(), TenantID: uuid.New(), PaymentType: "RTP",
		CandidatesRaw: `["other"]`,
	}).Error)

	rules, err := repo.ListByTenant(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"bankserv-primary", "rtc-backup"}, toStrSlice(rules[0].Candidates))
}

func toStrSlice[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
