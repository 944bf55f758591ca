package handlers

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/interfaces/http/middleware"
	"payorch.backend/internal/interfaces/http/response"
	"payorch.backend/internal/iso20022"
)

// CallbackService is the subset of CallbackUsecase's method set this handler depends on.
type CallbackService interface {
	HandleClearingCallback(ctx context.Context, tenantID uuid.UUID, uetr entities.UETR) error
}

// ClearingCallbackHandler serves inbound clearing-rail notifications
// (a Bankserv settlement-file landing, a SWIFT gpi tracker webhook) that
// re-drive a payment's saga instead of waiting on the next poll. The body
// is rail-native: this handler only ever decodes it far enough to pull out
// the UETR (spec §6); the rail's own status/reason payload is interpreted
// by the AwaitClearingResult step on its next poll, not here.
type ClearingCallbackHandler struct {
	callback CallbackService
}

func NewClearingCallbackHandler(callback CallbackService) *ClearingCallbackHandler {
	return &ClearingCallbackHandler{callback: callback}
}

// HandleCallback processes a clearing rail's notification.
// POST /api/v1/clearing/:rail/callback
func (h *ClearingCallbackHandler) HandleCallback(c *gin.Context) {
	tc, ok := middleware.GetTenantContext(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("tenant context not established"))
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, domainerrors.Validation("failed to read callback body", err))
		return
	}

	var status iso20022.Pacs002Document
	if err := xml.Unmarshal(raw, &status); err != nil {
		response.Error(c, domainerrors.Validation("callback body is not a valid pacs.002 status report", err))
		return
	}

	uetr := status.UETRFromCallback()
	if uetr == "" {
		response.Error(c, domainerrors.Validation("callback body carries no OrgnlUETR to correlate against", nil))
		return
	}

	if err := h.callback.HandleClearingCallback(c.Request.Context(), tc.TenantID, uetr); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}
