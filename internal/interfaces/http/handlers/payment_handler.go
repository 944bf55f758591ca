// Package handlers wires the usecases layer onto Gin routes. Each handler
// is a thin adapter: bind/parse the request, call the usecase, translate
// the result or error into a response — no business logic lives here,
// mirroring the teacher's handlers layer.
package handlers

import (
	"context"
	"encoding/xml"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/interfaces/http/middleware"
	"payorch.backend/internal/interfaces/http/response"
	"payorch.backend/internal/iso20022"
)

// AcceptService is the subset of AcceptUsecase's method set this handler
// depends on, kept local per the teacher's interface-at-point-of-use style.
type AcceptService interface {
	Accept(ctx context.Context, tc entities.TenantContext, input entities.AcceptPaymentInput, idempotencyKey string) (*entities.AcceptResult, error)
}

// StatusService is the subset of StatusUsecase's method set this handler depends on.
type StatusService interface {
	GetByID(ctx context.Context, tenantID, paymentID uuid.UUID) (*entities.Payment, error)
}

// CancelService is the subset of CancelUsecase's method set this handler depends on.
type CancelService interface {
	Cancel(ctx context.Context, tenantID, paymentID uuid.UUID) error
}

// PaymentHandler serves the payment-submission, status and cancellation endpoints.
type PaymentHandler struct {
	accept AcceptService
	status StatusService
	cancel CancelService
}

func NewPaymentHandler(accept AcceptService, status StatusService, cancel CancelService) *PaymentHandler {
	return &PaymentHandler{accept: accept, status: status, cancel: cancel}
}

// CreatePayment accepts a JSON payment instruction.
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	var input entities.AcceptPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.Validation(err.Error(), err))
		return
	}

	idempotencyKey := c.GetHeader(middleware.IdempotencyHeader)
	result, err := h.accept.Accept(c.Request.Context(), tc, input, idempotencyKey)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// GetPayment returns the current status of a payment.
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid payment id", err))
		return
	}

	payment, err := h.status.GetByID(c.Request.Context(), tc.TenantID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// CancelPayment requests cancellation of a payment still in flight.
// POST /api/v1/payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid payment id", err))
		return
	}

	if err := h.cancel.Cancel(c.Request.Context(), tc.TenantID, id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// pain001PaymentTypeQuery is how a bank client tells us which tenant
// payment-type configuration governs this pain.001 batch, since the ISO
// 20022 message itself carries only a local-instrument hint, not our
// tenant-scoped payment-type code.
const pain001PaymentTypeQuery = "paymentType"

// SubmitPain001 accepts a raw pain.001 XML document and runs each
// CdtTrfTxInf through the same AcceptUsecase.Accept path as a JSON submission.
// POST /api/v1/iso20022/pain001
func (h *PaymentHandler) SubmitPain001(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	paymentType := entities.PaymentTypeCode(c.Query(pain001PaymentTypeQuery))
	if paymentType == "" {
		response.Error(c, domainerrors.Validation("paymentType query parameter is required", nil))
		return
	}

	var doc iso20022.Pain001Document
	if err := xml.NewDecoder(c.Request.Body).Decode(&doc); err != nil {
		response.Error(c, domainerrors.Validation("malformed pain.001 document", err))
		return
	}

	inputs := doc.ToAcceptInputs(paymentType)
	if len(inputs) == 0 {
		response.Error(c, domainerrors.Validation("pain.001 document carries no payment instructions", nil))
		return
	}

	results := make([]*entities.AcceptResult, 0, len(inputs))
	for _, input := range inputs {
		result, err := h.accept.Accept(c.Request.Context(), tc, input, input.EndToEndID)
		if err != nil {
			response.Error(c, err)
			return
		}
		results = append(results, result)
	}
	response.Success(c, http.StatusCreated, results)
}
