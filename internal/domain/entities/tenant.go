package entities

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents whether a tenant may accept new payments.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusInactive  TenantStatus = "INACTIVE"
)

// TenantContext scopes every request and repository call, carried through
// context.Context and explicit parameters rather than a thread-local.
type TenantContext struct {
	TenantID       uuid.UUID `json:"tenantId"`
	BusinessUnitID string    `json:"businessUnitId,omitempty"`
	CustomerID     string    `json:"customerId,omitempty"`
}

// Tenant is the read-mostly tenant record.
type Tenant struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Status        TenantStatus `json:"status"`
	ConfigVersion int64        `json:"configVersion"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	DeletedAt     *time.Time   `json:"-"`
}

// ResponseMode controls how a payment-type's pain.002 is delivered.
type ResponseMode string

const (
	ResponseModeSynchronous ResponseMode = "SYNCHRONOUS"
	ResponseModeAsynchronous ResponseMode = "ASYNCHRONOUS"
	ResponseModeKafkaTopic   ResponseMode = "KAFKA_TOPIC"
)

// KafkaResponseConfig carries response-mode parameters for the KafkaTopic
// mode. The enum mode itself lives on PaymentTypeConfig.ResponseMode, which
// is authoritative when the two disagree (see SPEC_FULL.md §4 Open Questions).
type KafkaResponseConfig struct {
	TopicOverride string   `json:"topicOverride,omitempty"`
	TargetSystems []string `json:"targetSystems,omitempty"`
	Priority      string   `json:"priority,omitempty"`
}

// AsyncResponseConfig carries callback delivery parameters for Asynchronous mode.
type AsyncResponseConfig struct {
	CallbackURL   string `json:"callbackUrl"`
	AuthHeader    string `json:"authHeader,omitempty"`
	MaxRetries    int    `json:"maxRetries"`
	RetryBaseMs   int    `json:"retryBaseMs"`
}

// Timeouts bounds a payment-type's step/saga wall-clock budgets.
type Timeouts struct {
	StepTimeoutMs int `json:"stepTimeoutMs"`
	SagaTimeoutMs int `json:"sagaTimeoutMs"`
}

// PaymentTypeConfig is a tenant-scoped configuration of one payment type code.
type PaymentTypeConfig struct {
	TenantID         uuid.UUID            `json:"tenantId"`
	Code             PaymentTypeCode      `json:"code"`
	IsSynchronous    bool                 `json:"isSynchronous"` // legacy flag, superseded by ResponseMode
	ResponseMode     ResponseMode         `json:"responseMode"`
	KafkaConfig      *KafkaResponseConfig `json:"kafkaResponseConfig,omitempty"`
	AsyncConfig      *AsyncResponseConfig `json:"asyncResponseConfig,omitempty"`
	MaxAmount        Money                `json:"maxAmount"`
	ProcessingFeeBps int                  `json:"processingFeeBps"`
	Timeouts         Timeouts             `json:"timeouts"`
	FraudEnabled     bool                 `json:"fraudEnabled"`
	FraudThreshold   float64              `json:"fraudThreshold"`
}

// FeatureFlags gates optional behaviour per tenant.
type FeatureFlags struct {
	FraudScoringEnabled bool `json:"fraudScoringEnabled"`
	AutoFailoverEnabled bool `json:"autoFailoverEnabled"`
}

// TenantConfig is the versioned, read-mostly configuration snapshot consulted
// on every payment. A payment records the ConfigVersion it observed at
// acceptance so its saga uses a single consistent view end to end.
type TenantConfig struct {
	TenantID      uuid.UUID                      `json:"tenantId"`
	Version       int64                          `json:"version"`
	Status        TenantStatus                   `json:"status"`
	PaymentTypes  map[PaymentTypeCode]PaymentTypeConfig `json:"paymentTypes"`
	Features      FeatureFlags                   `json:"features"`
	DefaultRail   ClearingRail                    `json:"defaultRail"`
	RoutingRules  []RoutingRule                   `json:"routingRules"`
	ClearingAdapterConfigs []ClearingAdapterConfig `json:"clearingAdapterConfigs,omitempty"`
	UpdatedAt     time.Time                       `json:"updatedAt"`
}

// PaymentType looks up a payment-type config by code, reporting presence.
func (c *TenantConfig) PaymentType(code PaymentTypeCode) (PaymentTypeConfig, bool) {
	if c == nil {
		return PaymentTypeConfig{}, false
	}
	cfg, ok := c.PaymentTypes[code]
	return cfg, ok
}
