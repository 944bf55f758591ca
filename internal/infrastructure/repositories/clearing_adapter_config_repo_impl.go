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

type clearingAdapterConfigRepo struct {
	db *gorm.DB
}

// NewClearingAdapterConfigRepository creates a new clearing adapter config repository
func NewClearingAdapterConfigRepository(db *gorm.DB) domainrepos.ClearingAdapterConfigRepository {
	return &clearingAdapterConfigRepo{db: db}
}

func (r *clearingAdapterConfigRepo) GetByID(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) (*entities.ClearingAdapterConfig, error) {
	var row models.ClearingAdapterConfig
	err := GetDB(ctx, r.db).Where("adapter_id = ? AND tenant_id = ?", string(adapterID), tenantID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toClearingAdapterConfigEntity(&row)
}

func (r *clearingAdapterConfigRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*entities.ClearingAdapterConfig, error) {
	var rows []models.ClearingAdapterConfig
	if err := GetDB(ctx, r.db).Where("tenant_id = ? AND active = ?", tenantID, true).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toClearingAdapterConfigEntities(rows)
}

func (r *clearingAdapterConfigRepo) ListByRail(ctx context.Context, tenantID uuid.UUID, rail entities.ClearingRail) ([]*entities.ClearingAdapterConfig, error) {
	var rows []models.ClearingAdapterConfig
	if err := GetDB(ctx, r.db).Where("tenant_id = ? AND rail = ? AND active = ?", tenantID, string(rail), true).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toClearingAdapterConfigEntities(rows)
}

func toClearingAdapterConfigEntities(rows []models.ClearingAdapterConfig) ([]*entities.ClearingAdapterConfig, error) {
	configs := make([]*entities.ClearingAdapterConfig, 0, len(rows))
	for i := range rows {
		cfg, err := toClearingAdapterConfigEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func toClearingAdapterConfigEntity(row *models.ClearingAdapterConfig) (*entities.ClearingAdapterConfig, error) {
	var requestHeaders, queryParams map[string]string
	if err := unmarshalJSONOr(row.RequestHeadersRaw, &requestHeaders, map[string]string{}); err != nil {
		return nil, err
	}
	if err := unmarshalJSONOr(row.QueryParamsRaw, &queryParams, map[string]string{}); err != nil {
		return nil, err
	}
	var auth entities.AuthConfig
	if err := json.Unmarshal([]byte(row.AuthRaw), &auth); err != nil {
		return nil, err
	}
	var retries entities.RetryPolicy
	if err := json.Unmarshal([]byte(row.RetriesRaw), &retries); err != nil {
		return nil, err
	}
	var cb entities.CircuitBreakerConfig
	if err := json.Unmarshal([]byte(row.CircuitBreakerRaw), &cb); err != nil {
		return nil, err
	}
	var rateLimit entities.RateLimitConfig
	if err := json.Unmarshal([]byte(row.RateLimitRaw), &rateLimit); err != nil {
		return nil, err
	}
	var reqMapping, respMapping entities.PayloadMapping
	if err := json.Unmarshal([]byte(row.RequestMappingRaw), &reqMapping); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.ResponseMappingRaw), &respMapping); err != nil {
		return nil, err
	}

	return &entities.ClearingAdapterConfig{
		AdapterID:       entities.ClearingAdapterID(row.AdapterID),
		TenantID:        row.TenantID,
		Rail:            entities.ClearingRail(row.Rail),
		EndpointPath:    row.EndpointPath,
		BaseURLOverride: row.BaseURLOverride,
		HTTPMethod:      row.HTTPMethod,
		RequestHeaders:  requestHeaders,
		QueryParams:     queryParams,
		Auth:            auth,
		TimeoutMs:       row.TimeoutMs,
		Retries:         retries,
		CircuitBreaker:  cb,
		RateLimit:       rateLimit,
		RequestMapping:  reqMapping,
		ResponseMapping: respMapping,
		SupportsCancel:  row.SupportsCancel,
		Synchronous:     row.Synchronous,
		Active:          row.Active,
	}, nil
}

func unmarshalJSONOr(raw string, out interface{}, fallback interface{}) error {
	if raw == "" {
		b, _ := json.Marshal(fallback)
		raw = string(b)
	}
	return json.Unmarshal([]byte(raw), out)
}
