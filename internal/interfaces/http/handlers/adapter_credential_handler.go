package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/interfaces/http/middleware"
	"payorch.backend/internal/interfaces/http/response"
)

// AdapterCredentialService is the subset of AdapterCredentialUsecase this handler depends on.
type AdapterCredentialService interface {
	Issue(ctx context.Context, tenantID uuid.UUID, input entities.IssueAdapterCredentialInput) (*entities.IssueAdapterCredentialResponse, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, adapterID entities.ClearingAdapterID) ([]*entities.AdapterCredential, error)
}

// AdapterCredentialHandler serves operator-gated issuance/revocation of the
// credentials external clearing adapters present when calling back into us.
type AdapterCredentialHandler struct {
	creds AdapterCredentialService
}

func NewAdapterCredentialHandler(creds AdapterCredentialService) *AdapterCredentialHandler {
	return &AdapterCredentialHandler{creds: creds}
}

// Issue creates a new adapter credential, returning the plaintext secret once.
// POST /api/v1/ops/adapter-credentials
func (h *AdapterCredentialHandler) Issue(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	var input entities.IssueAdapterCredentialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation("invalid adapter credential request", err))
		return
	}

	out, err := h.creds.Issue(c.Request.Context(), tc.TenantID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, out)
}

// List returns every credential issued for a tenant's adapter.
// GET /api/v1/ops/adapter-credentials?adapterId=...
func (h *AdapterCredentialHandler) List(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	adapterID := entities.ClearingAdapterID(c.Query("adapterId"))
	if adapterID == "" {
		response.Error(c, domainerrors.Validation("adapterId query parameter is required", nil))
		return
	}

	creds, err := h.creds.List(c.Request.Context(), tc.TenantID, adapterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"credentials": creds})
}

// Revoke deactivates a credential immediately.
// POST /api/v1/ops/adapter-credentials/:id/revoke
func (h *AdapterCredentialHandler) Revoke(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid credential id", err))
		return
	}

	if err := h.creds.Revoke(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
