// Package fraud implements the Fraud Adapter: the saga's FraudScore step
// calls out to a fraud-scoring service and gets back a 0.0-1.0 risk score,
// compared against the tenant's configured threshold by the step itself.
package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
)

// Adapter is the steps.FraudAdapter port.
type Adapter interface {
	Score(ctx context.Context, p *entities.Payment) (float64, error)
}

// HTTPAdapter scores a payment against an external fraud engine over a JSON
// HTTP API. A transport failure or 5xx maps to AdapterUnavailable so the
// saga retries; the fraud step itself decides whether a returned score
// exceeds the tenant's threshold.
type HTTPAdapter struct {
	client  *http.Client
	baseURL string
	log     *zap.Logger
}

func NewHTTPAdapter(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log,
	}
}

type scoreRequest struct {
	PaymentID       string `json:"paymentId"`
	TenantID        string `json:"tenantId"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	DebtorAccount   string `json:"debtorAccount"`
	CreditorAccount string `json:"creditorAccount"`
	PaymentType     string `json:"paymentType"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

func (a *HTTPAdapter) Score(ctx context.Context, p *entities.Payment) (float64, error) {
	body := scoreRequest{
		PaymentID:       p.ID.String(),
		TenantID:        p.TenantID.String(),
		Amount:          p.Amount.String(),
		Currency:        p.Amount.Currency,
		DebtorAccount:   p.Debtor.Account,
		CreditorAccount: p.Creditor.Account,
		PaymentType:     string(p.PaymentType),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, domainerrors.System(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return 0, domainerrors.System(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.ID.String())

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("fraud adapter call failed", zap.Error(err))
		return 0, domainerrors.AdapterUnavailable("fraud scoring request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, domainerrors.AdapterUnavailable(fmt.Sprintf("fraud engine returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return 0, domainerrors.AdapterReject(fmt.Sprintf("fraud engine rejected request: %d", resp.StatusCode), nil)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, domainerrors.System(err)
	}
	return out.Score, nil
}
