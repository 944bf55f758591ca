package fraud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
)

func testPayment() *entities.Payment {
	return &entities.Payment{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Amount:   entities.MustMoney("100.00", "ZAR"),
		Debtor:   entities.Party{Account: "acc-1"},
		Creditor: entities.Party{Account: "acc-2"},
	}
}

func TestHTTPAdapter_Score_ReturnsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		json.NewEncoder(w).Encode(scoreResponse{Score: 0.42})
	}))
	defer srv.Close()

	a := NewHTTPAdapter(srv.URL, time.Second, zap.NewNop())
	score, err := a.Score(context.Background(), testPayment())
	require.NoError(t, err)
	assert.Equal(t, 0.42, score)
}

func TestHTTPAdapter_Score_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	a := NewHTTPAdapter(srv.URL, time.Second, zap.NewNop())
	_, err := a.Score(context.Background(), testPayment())
	require.Error(t, err)
	ae := domainerrors.AsAppError(err)
	assert.True(t, ae.Retryable())
}
