package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	domainrepos "payorch.backend/internal/domain/repositories"
	"payorch.backend/internal/infrastructure/models"
)

type tenantConfigRepo struct {
	db *gorm.DB
}

// NewTenantConfigRepository creates a new tenant config repository
func NewTenantConfigRepository(db *gorm.DB) domainrepos.TenantConfigRepository {
	return &tenantConfigRepo{db: db}
}

// GetConfig loads the tenant's versioned config and, per the routing
// resolver's expectation that RoutingRules arrive already populated,
// joins in that tenant's routing_rules rows in the same call.
func (r *tenantConfigRepo) GetConfig(ctx context.Context, tenantID uuid.UUID) (*entities.TenantConfig, error) {
	var row models.TenantConfig
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}

	var ruleRows []models.RoutingRule
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).Order("priority DESC").Find(&ruleRows).Error; err != nil {
		return nil, err
	}
	rules := make([]entities.RoutingRule, 0, len(ruleRows))
	for i := range ruleRows {
		rules = append(rules, toRoutingRuleEntity(&ruleRows[i]))
	}

	var adapterRows []models.ClearingAdapterConfig
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).Find(&adapterRows).Error; err != nil {
		return nil, err
	}
	adapters, err := toClearingAdapterConfigEntities(adapterRows)
	if err != nil {
		return nil, err
	}

	cfg, err := toTenantConfigEntity(&row)
	if err != nil {
		return nil, err
	}
	cfg.RoutingRules = rules
	cfg.ClearingAdapterConfigs = make([]entities.ClearingAdapterConfig, 0, len(adapters))
	for _, a := range adapters {
		cfg.ClearingAdapterConfigs = append(cfg.ClearingAdapterConfigs, *a)
	}
	return cfg, nil
}

func (r *tenantConfigRepo) GetVersion(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var row models.TenantConfig
	if err := GetDB(ctx, r.db).Select("version").Where("tenant_id = ?", tenantID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domainerrors.ErrNotFound
		}
		return 0, err
	}
	return row.Version, nil
}

func toTenantConfigEntity(row *models.TenantConfig) (*entities.TenantConfig, error) {
	var paymentTypes map[entities.PaymentTypeCode]entities.PaymentTypeConfig
	if err := json.Unmarshal([]byte(row.PaymentTypesRaw), &paymentTypes); err != nil {
		return nil, err
	}
	var features entities.FeatureFlags
	if err := json.Unmarshal([]byte(row.FeaturesRaw), &features); err != nil {
		return nil, err
	}
	return &entities.TenantConfig{
		TenantID:     row.TenantID,
		Version:      row.Version,
		Status:       entities.TenantStatus(row.Status),
		PaymentTypes: paymentTypes,
		Features:     features,
		DefaultRail:  entities.ClearingRail(row.DefaultRail),
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

// routingRuleRepo implements domainrepos.RoutingRuleRepository.
type routingRuleRepo struct {
	db *gorm.DB
}

func NewRoutingRuleRepository(db *gorm.DB) domainrepos.RoutingRuleRepository {
	return &routingRuleRepo{db: db}
}

func (r *routingRuleRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entities.RoutingRule, error) {
	var rows []models.RoutingRule
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).Order("priority DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	rules := make([]*entities.RoutingRule, 0, len(rows))
	for i := range rows {
		rule := toRoutingRuleEntity(&rows[i])
		rules = append(rules, &rule)
	}
	return rules, nil
}

func toRoutingRuleEntity(row *models.RoutingRule) entities.RoutingRule {
	var band *entities.AmountBand
	if row.AmountBandRaw != "" {
		band = &entities.AmountBand{}
		_ = json.Unmarshal([]byte(row.AmountBandRaw), band)
	}
	var candidates []entities.ClearingAdapterID
	_ = json.Unmarshal([]byte(row.CandidatesRaw), &candidates)

	return entities.RoutingRule{
		ID:              row.ID,
		TenantID:        row.TenantID,
		PaymentType:     entities.PaymentTypeCode(row.PaymentType),
		LocalInstrument: row.LocalInstrument,
		Currency:        row.Currency,
		AmountBand:      band,
		Candidates:      candidates,
		Priority:        row.Priority,
	}
}
