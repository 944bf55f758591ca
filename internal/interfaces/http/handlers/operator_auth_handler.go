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

// OperatorAuthService is the subset of OperatorAuthUsecase this handler depends on.
type OperatorAuthService interface {
	Login(ctx context.Context, input entities.LoginInput) (*entities.AuthResponse, error)
	CreateOperator(ctx context.Context, input entities.CreateOperatorInput) (*entities.Operator, error)
	Me(ctx context.Context, operatorID uuid.UUID) (*entities.Operator, error)
}

// OperatorAuthHandler serves the internal ops/admin login and account
// management surface. Never reachable by payer- or merchant-facing callers.
type OperatorAuthHandler struct {
	auth OperatorAuthService
}

func NewOperatorAuthHandler(auth OperatorAuthService) *OperatorAuthHandler {
	return &OperatorAuthHandler{auth: auth}
}

// Login authenticates an operator.
// POST /api/v1/ops/auth/login
func (h *OperatorAuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation("invalid login request", err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// CreateOperator provisions a new operator account. Gated by
// middleware.RequireAdmin in the route wiring.
// POST /api/v1/ops/auth/operators
func (h *OperatorAuthHandler) CreateOperator(c *gin.Context) {
	var input entities.CreateOperatorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation("invalid operator request", err))
		return
	}

	op, err := h.auth.CreateOperator(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, op)
}

// Me returns the authenticated operator's profile.
// GET /api/v1/ops/auth/me
func (h *OperatorAuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("authentication required"))
		return
	}

	op, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, op)
}
