package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"payorch.backend/internal/domain/entities"
)

func TestAppError_Constructors(t *testing.T) {
	v := Validation("bad amount", stderrors.New("parse failed"))
	assert.Equal(t, http.StatusBadRequest, v.Status)
	assert.Equal(t, "VALIDATION_FAILED", v.Code)
	assert.False(t, v.Retryable())

	tp := TenantPolicy("amount exceeds limit", nil)
	assert.Equal(t, entities.ReasonTenantPolicy, tp.ReasonCode)
	assert.False(t, tp.Retryable())

	fr := Fraud("score above threshold", nil)
	assert.Equal(t, entities.ReasonFraudRejected, fr.ReasonCode)
	assert.False(t, fr.Retryable())

	li := LedgerInsufficient("insufficient balance", nil)
	assert.Equal(t, entities.ReasonInsufficientFunds, li.ReasonCode)

	au := AdapterUnavailable("timeout", stderrors.New("dial tcp: timeout"))
	assert.True(t, au.Retryable())
	assert.Equal(t, http.StatusBadGateway, au.Status)

	ar := AdapterReject("rail declined", nil)
	assert.False(t, ar.Retryable())
	assert.Equal(t, entities.ReasonAdapterReject, ar.ReasonCode)

	cfg := Config("missing adapter config", nil)
	assert.False(t, cfg.Retryable())

	sys := System(stderrors.New("db down"))
	assert.True(t, sys.Retryable())
	assert.Equal(t, http.StatusInternalServerError, sys.Status)

	nf := NotFound("payment not found")
	assert.Equal(t, http.StatusNotFound, nf.Status)
	assert.True(t, stderrors.Is(nf.Err, ErrNotFound))

	conflict := Conflict("already exists")
	assert.Equal(t, http.StatusConflict, conflict.Status)

	unauth := Unauthorized("missing token")
	assert.Equal(t, http.StatusUnauthorized, unauth.Status)

	forbidden := Forbidden("insufficient scope")
	assert.Equal(t, http.StatusForbidden, forbidden.Status)
}

func TestAsAppError_WrapsPlainErrors(t *testing.T) {
	plain := stderrors.New("unexpected")
	wrapped := AsAppError(plain)
	assert.Equal(t, KindSystem, wrapped.Kind)
	assert.ErrorIs(t, wrapped, plain)

	original := Fraud("nope", nil)
	assert.Same(t, original, AsAppError(original))
}
