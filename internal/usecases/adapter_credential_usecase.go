package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/pkg/crypto"
)

// adapterCredentialKeyPrefix tags every issued credential the same way the
// teacher tags API keys (pk_live_-style), so a leaked credential is
// recognisable by prefix alone.
const adapterCredentialKeyPrefix = "ack_live_"

// AdapterCredentialUsecase issues and verifies the credentials an external
// caller presents to authenticate as a clearing adapter (AuthConfig.Type
// APIKey). Grounded on the teacher's ApiKeyUsecase.CreateApiKey/ValidateApiKey,
// adapted so the hashed half is looked up by SHA-256 key hash (fast, indexed
// equality lookup, same as the teacher) while the secret itself is verified
// with bcrypt via pkg/crypto rather than reversibly decrypted — this
// credential is never decrypted back to plaintext after issuance, unlike the
// AuthConfig secrets pkg/secretbox seals for our own outbound calls.
type AdapterCredentialUsecase struct {
	creds repositories.AdapterCredentialRepository
}

func NewAdapterCredentialUsecase(creds repositories.AdapterCredentialRepository) *AdapterCredentialUsecase {
	return &AdapterCredentialUsecase{creds: creds}
}

// Issue generates a new credential for the given adapter. The plaintext
// secret is returned exactly once and never stored.
func (u *AdapterCredentialUsecase) Issue(ctx context.Context, tenantID uuid.UUID, input entities.IssueAdapterCredentialInput) (*entities.IssueAdapterCredentialResponse, error) {
	if input.AdapterID == "" || input.Name == "" {
		return nil, domainerrors.Validation("adapterId and name are required", nil)
	}

	secretRaw, err := crypto.GenerateRandomToken(32)
	if err != nil {
		return nil, domainerrors.System(err)
	}
	secret := adapterCredentialKeyPrefix + secretRaw

	keyHash := sha256Hex(secret)
	secretHash, err := crypto.HashPassword(secret)
	if err != nil {
		return nil, domainerrors.System(err)
	}

	now := time.Now()
	cred := &entities.AdapterCredential{
		ID:           uuid.New(),
		TenantID:     tenantID,
		AdapterID:    input.AdapterID,
		Name:         input.Name,
		KeyPrefix:    adapterCredentialKeyPrefix,
		KeyHash:      keyHash,
		SecretSealed: secretHash,
		SecretMasked: "****" + secret[len(secret)-4:],
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.creds.Create(ctx, cred); err != nil {
		return nil, err
	}

	return &entities.IssueAdapterCredentialResponse{
		ID:        cred.ID,
		Name:      cred.Name,
		KeyPrefix: cred.KeyPrefix,
		Secret:    secret,
		CreatedAt: cred.CreatedAt,
	}, nil
}

// Verify looks up a credential by the SHA-256 hash of the presented secret
// and confirms it with a bcrypt compare, mirroring the teacher's two-step
// hash-then-compare ValidateApiKey flow.
func (u *AdapterCredentialUsecase) Verify(ctx context.Context, presented string) (*entities.AdapterCredential, error) {
	cred, err := u.creds.GetByKeyHash(ctx, sha256Hex(presented))
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid adapter credential")
	}
	if !cred.IsActive {
		return nil, domainerrors.Unauthorized("adapter credential has been revoked")
	}
	if cred.ExpiresAt != nil && cred.ExpiresAt.Before(time.Now()) {
		return nil, domainerrors.Unauthorized("adapter credential has expired")
	}
	if !crypto.CheckPassword(presented, cred.SecretSealed) {
		return nil, domainerrors.Unauthorized("invalid adapter credential")
	}
	return cred, nil
}

// Revoke deactivates a credential immediately.
func (u *AdapterCredentialUsecase) Revoke(ctx context.Context, id uuid.UUID) error {
	return u.creds.Revoke(ctx, id)
}

// List returns every credential issued for a tenant's adapter, secrets never included.
func (u *AdapterCredentialUsecase) List(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) ([]*entities.AdapterCredential, error) {
	return u.creds.ListByAdapter(ctx, tenantID, adapterID)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
