package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/interfaces/http/middleware"
	"payorch.backend/internal/interfaces/http/response"
	"payorch.backend/pkg/utils"
)

// DeadLetterService is the subset of SagaRepository this handler depends on.
type DeadLetterService interface {
	ListDeadLettered(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entities.Saga, error)
}

// OpsHandler serves the operator-facing saga inspection endpoints.
type OpsHandler struct {
	sagas DeadLetterService
}

func NewOpsHandler(sagas DeadLetterService) *OpsHandler {
	return &OpsHandler{sagas: sagas}
}

// ListDeadLetteredSagas returns sagas the engine gave up retrying, paginated
// per the teacher's utils.PaginationParams convention.
// GET /api/v1/ops/sagas/dead-letter
func (h *OpsHandler) ListDeadLetteredSagas(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	pagination := utils.GetPaginationParams(page, limit)

	sagas, err := h.sagas.ListDeadLettered(c.Request.Context(), tc.TenantID, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sagas": sagas})
}
