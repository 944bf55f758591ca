package entities

import (
	"time"

	"github.com/google/uuid"
)

// ClearingRail identifies an external interbank clearing system.
type ClearingRail string

const (
	ClearingRailSAMOS    ClearingRail = "SAMOS"
	ClearingRailBankserv ClearingRail = "BANKSERV"
	ClearingRailRTC      ClearingRail = "RTC"
	ClearingRailPayShap  ClearingRail = "PAYSHAP"
	ClearingRailSWIFT    ClearingRail = "SWIFT"
)

// ClearingAdapterID identifies one configured adapter instance (a tenant may
// have more than one adapter for the same rail, e.g. primary/backup).
type ClearingAdapterID string

// AuthType enumerates supported outbound authentication schemes.
type AuthType string

const (
	AuthTypeNone    AuthType = "NONE"
	AuthTypeAPIKey  AuthType = "API_KEY"
	AuthTypeBearer  AuthType = "BEARER"
	AuthTypeOAuth2  AuthType = "OAUTH2"
	AuthTypeMTLS    AuthType = "MTLS"
)

// AuthConfig describes how the clearing framework authenticates to the rail.
// Secret material (APIKeySecretSealed, BearerTokenSealed, OAuth2SecretSealed,
// MTLSKeySealed) is
// stored encrypted at rest (see pkg/secretbox) and decrypted only in-process
// immediately before use.
type AuthConfig struct {
	Type               AuthType `json:"type"`
	APIKeyHeader       string   `json:"apiKeyHeader,omitempty"`
	APIKeySecretSealed string   `json:"-"`
	BearerTokenSealed  string   `json:"-"`
	OAuth2TokenURL     string   `json:"oauth2TokenUrl,omitempty"`
	OAuth2ClientID     string   `json:"oauth2ClientId,omitempty"`
	OAuth2SecretSealed string   `json:"-"`
	MTLSCertPath       string   `json:"mtlsCertPath,omitempty"`
	MTLSKeySealed      string   `json:"-"`
}

// CircuitBreakerConfig parameterises the per-adapter circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold    int32         `json:"failureThreshold"`
	HalfOpenSuccesses   int32         `json:"halfOpenSuccesses"`
	OpenDuration        time.Duration `json:"openDuration"`
}

// RateLimitConfig parameterises the per-(tenant,adapter) token bucket.
type RateLimitConfig struct {
	RequestsPerSecond int `json:"requestsPerSecond"`
	Burst             int `json:"burst"`
}

// RetryPolicy bounds step/adapter retry behaviour.
type RetryPolicy struct {
	MaxAttempts int           `json:"maxAttempts"`
	BackoffBase time.Duration `json:"backoffBase"`
	BackoffCap  time.Duration `json:"backoffCap"`
}

// MappingDirection is Request or Response.
type MappingDirection string

const (
	MappingDirectionRequest  MappingDirection = "REQUEST"
	MappingDirectionResponse MappingDirection = "RESPONSE"
)

// TransformationRule is one of the enumerated payload transforms.
type TransformationRule string

const (
	TransformUppercase     TransformationRule = "uppercase"
	TransformCurrencyFmt   TransformationRule = "currency_format"
	TransformDateFmt       TransformationRule = "date_format"
	TransformUUIDGenerate  TransformationRule = "uuid_generate"
	TransformNow           TransformationRule = "now"
)

// FieldTransform binds a source/target path pair to an optional transform.
type FieldTransform struct {
	SourcePath  string             `json:"sourcePath"`
	TargetPath  string             `json:"targetPath"`
	Rule        TransformationRule `json:"rule,omitempty"`
	Condition   string             `json:"condition,omitempty"`
	DefaultVal  string             `json:"defaultValue,omitempty"`
}

// PayloadMapping describes how a canonical Payment is transformed into rail
// wire format (Request) and back (Response).
type PayloadMapping struct {
	Direction       MappingDirection  `json:"direction"`
	FieldMappings   []FieldTransform  `json:"fieldMappings"`
	ValidationRules []string          `json:"validationRules,omitempty"`
	DefaultValues   map[string]string `json:"defaultValues,omitempty"`
}

// ClearingAdapterConfig is the per-adapter, per-tenant configuration: one
// adapter per rail, possibly sharing host:port with other tenants'
// adapters, distinguished downstream by injected headers.
type ClearingAdapterConfig struct {
	AdapterID            ClearingAdapterID    `json:"adapterId"`
	TenantID             uuid.UUID            `json:"tenantId"`
	Rail                 ClearingRail         `json:"rail"`
	EndpointPath         string               `json:"endpointPath"`
	BaseURLOverride      string               `json:"baseUrlOverride,omitempty"`
	HTTPMethod           string               `json:"httpMethod"`
	RequestHeaders       map[string]string    `json:"requestHeaders,omitempty"`
	QueryParams          map[string]string    `json:"queryParams,omitempty"`
	Auth                 AuthConfig           `json:"auth"`
	TimeoutMs            int                  `json:"timeoutMs"`
	Retries              RetryPolicy          `json:"retries"`
	CircuitBreaker       CircuitBreakerConfig `json:"circuitBreaker"`
	RateLimit            RateLimitConfig      `json:"rateLimit"`
	RequestMapping       PayloadMapping       `json:"requestMapping"`
	ResponseMapping      PayloadMapping       `json:"responseMapping"`
	SupportsCancel       bool                 `json:"supportsCancel"`
	Synchronous          bool                 `json:"synchronous"`
	Active               bool                 `json:"active"`
}

// AmountBand is an inclusive [Min, Max] amount range used by routing rules;
// Max of zero means unbounded.
type AmountBand struct {
	Min Money `json:"min"`
	Max Money `json:"max"`
}

// RoutingRule is one explicit tenant routing rule; among the rules that
// match a payment, the resolver takes the one with the highest Priority.
type RoutingRule struct {
	ID              uuid.UUID         `json:"id"`
	TenantID        uuid.UUID         `json:"tenantId"`
	PaymentType     PaymentTypeCode   `json:"paymentType"`
	LocalInstrument string            `json:"localInstrument,omitempty"`
	Currency        string            `json:"currency,omitempty"`
	AmountBand      *AmountBand       `json:"amountBand,omitempty"`
	Candidates      []ClearingAdapterID `json:"candidates"`
	Priority        int               `json:"priority"`
}

// ClearingOutcome is the common result shape every rail adapter normalises
// its rail-specific acknowledgement into.
type ClearingOutcome struct {
	Accepted    bool       `json:"accepted"`
	TrackingRef string     `json:"trackingRef,omitempty"`
	FinalStatus bool       `json:"finalStatus"`
	ReasonCode  ReasonCode `json:"reasonCode,omitempty"`
	RawStatus   string     `json:"rawStatus,omitempty"`
}

// AdapterCapabilities flags what a given rail adapter supports.
type AdapterCapabilities struct {
	Rail           ClearingRail `json:"rail"`
	SupportsCancel bool         `json:"supportsCancel"`
	Synchronous    bool         `json:"synchronous"`
}
