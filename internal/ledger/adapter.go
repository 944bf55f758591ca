// Package ledger implements the Ledger Adapter: the saga's funds-reservation
// and posting port talks to the core-banking ledger over HTTP, using the
// payment's own ID as the idempotency key so a retried reserve/post never
// double-books the account.
package ledger

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

// Adapter is the steps.LedgerAdapter port: reserve a hold, release it on
// compensation, and post the final debit/credit entry once clearing settles.
type Adapter interface {
	ReserveFunds(ctx context.Context, p *entities.Payment) error
	ReleaseFunds(ctx context.Context, p *entities.Payment) error
	PostLedger(ctx context.Context, p *entities.Payment) error
}

// HTTPAdapter calls an external core-banking ledger over a JSON HTTP API.
// Every request carries the payment ID as an idempotency key header so a
// saga retry after a timeout never double-reserves or double-posts.
type HTTPAdapter struct {
	client  *http.Client
	baseURL string
	log     *zap.Logger
}

// NewHTTPAdapter builds a ledger Adapter against baseURL, e.g.
// "https://ledger.internal/v1". timeout bounds every individual call;
// the saga's own retry/backoff handles anything slower.
func NewHTTPAdapter(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     log,
	}
}

type reserveRequest struct {
	PaymentID string `json:"paymentId"`
	TenantID  string `json:"tenantId"`
	Account   string `json:"account"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type reserveResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (a *HTTPAdapter) ReserveFunds(ctx context.Context, p *entities.Payment) error {
	body := reserveRequest{
		PaymentID: p.ID.String(),
		TenantID:  p.TenantID.String(),
		Account:   p.Debtor.Account,
		Amount:    p.Amount.String(),
		Currency:  p.Amount.Currency,
	}
	var resp reserveResponse
	if err := a.post(ctx, "/holds", p.ID.String(), body, &resp); err != nil {
		return err
	}
	if resp.Status == "declined" {
		return domainerrors.LedgerInsufficient(resp.Reason, nil)
	}
	return nil
}

func (a *HTTPAdapter) ReleaseFunds(ctx context.Context, p *entities.Payment) error {
	return a.post(ctx, "/holds/"+p.ID.String()+"/release", p.ID.String(), struct{}{}, nil)
}

type postRequest struct {
	PaymentID   string `json:"paymentId"`
	TenantID    string `json:"tenantId"`
	DebtorAcct  string `json:"debtorAccount"`
	CreditAcct  string `json:"creditorAccount"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	TrackingRef string `json:"trackingRef"`
}

func (a *HTTPAdapter) PostLedger(ctx context.Context, p *entities.Payment) error {
	body := postRequest{
		PaymentID:   p.ID.String(),
		TenantID:    p.TenantID.String(),
		DebtorAcct:  p.Debtor.Account,
		CreditAcct:  p.Creditor.Account,
		Amount:      p.Amount.String(),
		Currency:    p.Amount.Currency,
		TrackingRef: p.TrackingRef,
	}
	return a.post(ctx, "/entries", p.ID.String(), body, nil)
}

func (a *HTTPAdapter) post(ctx context.Context, path, idempotencyKey string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domainerrors.System(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domainerrors.System(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("ledger adapter call failed", zap.String("path", path), zap.Error(err))
		return domainerrors.AdapterUnavailable("ledger request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return domainerrors.AdapterUnavailable(fmt.Sprintf("ledger returned %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return domainerrors.AdapterReject(fmt.Sprintf("ledger rejected request: %d", resp.StatusCode), nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domainerrors.System(err)
		}
	}
	return nil
}
