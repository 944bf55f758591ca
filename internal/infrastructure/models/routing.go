package models

import (
	"github.com/google/uuid"
)

// RoutingRule is the GORM row shape for entities.RoutingRule. AmountBand
// and Candidates are stored as JSON text, same rationale as TenantConfig's
// nested columns.
type RoutingRule struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index:idx_routing_rule_tenant"`
	PaymentType     string    `gorm:"type:varchar(32);not null"`
	LocalInstrument string    `gorm:"type:varchar(32)"`
	Currency        string    `gorm:"type:varchar(3)"`
	AmountBandRaw   string    `gorm:"column:amount_band;type:jsonb"`
	CandidatesRaw   string    `gorm:"column:candidates;type:jsonb;not null;default:'[]'"`
	Priority        int       `gorm:"not null;default:0"`
}

func (RoutingRule) TableName() string { return "routing_rules" }

// ClearingAdapterConfig is the GORM row shape for entities.ClearingAdapterConfig.
// The nested Auth/Retries/CircuitBreaker/RateLimit/mapping structures are
// stored as one JSON text column each rather than one column per leaf field,
// since none of them are queried independently of the adapter they belong to.
type ClearingAdapterConfig struct {
	AdapterID              string `gorm:"type:varchar(64);primaryKey"`
	TenantID               uuid.UUID `gorm:"type:uuid;not null;index:idx_clearing_adapter_tenant"`
	Rail                   string `gorm:"type:varchar(16);not null;index:idx_clearing_adapter_rail"`
	EndpointPath           string `gorm:"type:varchar(255);not null"`
	BaseURLOverride        string `gorm:"type:varchar(255)"`
	HTTPMethod             string `gorm:"type:varchar(8);not null;default:'POST'"`
	RequestHeadersRaw      string `gorm:"column:request_headers;type:jsonb;default:'{}'"`
	QueryParamsRaw         string `gorm:"column:query_params;type:jsonb;default:'{}'"`
	AuthRaw                string `gorm:"column:auth;type:jsonb;not null;default:'{}'"`
	TimeoutMs              int    `gorm:"not null;default:5000"`
	RetriesRaw             string `gorm:"column:retries;type:jsonb;not null;default:'{}'"`
	CircuitBreakerRaw      string `gorm:"column:circuit_breaker;type:jsonb;not null;default:'{}'"`
	RateLimitRaw           string `gorm:"column:rate_limit;type:jsonb;not null;default:'{}'"`
	RequestMappingRaw      string `gorm:"column:request_mapping;type:jsonb;not null;default:'{}'"`
	ResponseMappingRaw     string `gorm:"column:response_mapping;type:jsonb;not null;default:'{}'"`
	SupportsCancel         bool   `gorm:"not null;default:false"`
	Synchronous            bool   `gorm:"not null;default:false"`
	Active                 bool   `gorm:"not null;default:true;index:idx_clearing_adapter_active"`
}

func (ClearingAdapterConfig) TableName() string { return "clearing_adapter_configs" }
