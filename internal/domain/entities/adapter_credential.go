package entities

import (
	"time"

	"github.com/google/uuid"
)

// AdapterCredential is an issued credential bound to one ClearingAdapterConfig,
// used when that adapter's AuthConfig.Type is APIKey. Adapted from the
// teacher's per-user ApiKey: here the subject is a clearing adapter, not a
// human user, and the secret is always sealed (never stored or returned in
// the clear after issuance).
type AdapterCredential struct {
	ID              uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	TenantID        uuid.UUID          `json:"tenantId" gorm:"type:uuid;not null;index:idx_adapter_credential_tenant"`
	AdapterID       ClearingAdapterID  `json:"adapterId" gorm:"type:varchar(64);not null"`
	Name            string             `json:"name" gorm:"type:varchar(100);not null"`
	KeyPrefix       string             `json:"keyPrefix" gorm:"type:varchar(20);not null"`
	KeyHash         string             `json:"keyHash" gorm:"type:varchar(64);uniqueIndex;not null"`
	SecretSealed    string             `json:"-" gorm:"type:text;not null"`
	SecretMasked    string             `json:"secretMasked" gorm:"type:varchar(20);not null"`
	IsActive        bool               `json:"isActive" gorm:"default:true"`
	LastUsedAt      *time.Time         `json:"lastUsedAt,omitempty"`
	ExpiresAt       *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	DeletedAt       *time.Time         `json:"-" gorm:"index"`
}

// IssueAdapterCredentialInput requests a new credential for a clearing adapter.
type IssueAdapterCredentialInput struct {
	AdapterID ClearingAdapterID `json:"adapterId" binding:"required"`
	Name      string            `json:"name" binding:"required"`
}

// IssueAdapterCredentialResponse is returned exactly once, at issuance time;
// the plaintext secret is never retrievable afterward.
type IssueAdapterCredentialResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	KeyPrefix string    `json:"keyPrefix"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"createdAt"`
}
