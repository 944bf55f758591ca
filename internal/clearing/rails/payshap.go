package rails

import (
	"context"

	"payorch.backend/internal/domain/entities"
)

// PayShapClient submits instant low-value payments to PayShap's REST/JSON
// proxy API (PayShap itself runs over RPP/RTC rails, but participants
// integrate through a JSON gateway rather than raw ISO 20022 XML).
type PayShapClient struct{}

func NewPayShapClient() *PayShapClient { return &PayShapClient{} }

func (c *PayShapClient) Rail() entities.ClearingRail { return entities.ClearingRailPayShap }

type payShapRequest struct {
	UETR            string `json:"uetr"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	DebtorAccount   string `json:"debtorAccount"`
	CreditorAccount string `json:"creditorAccount"`
	ProxyType       string `json:"proxyType,omitempty"`
}

type payShapResponse struct {
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	RejectCode  string `json:"rejectCode,omitempty"`
}

func (c *PayShapClient) Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error) {
	req := payShapRequest{
		UETR:            string(p.UETR),
		Amount:          p.Amount.String(),
		Currency:        p.Amount.Currency,
		DebtorAccount:   p.Debtor.Account,
		CreditorAccount: p.Creditor.Account,
	}
	var resp payShapResponse
	if err := postJSON(ctx, cfg, req, &resp); err != nil {
		return entities.ClearingOutcome{}, err
	}
	if resp.Status != "completed" {
		return entities.ClearingOutcome{
			Accepted:    false,
			FinalStatus: true,
			ReasonCode:  entities.ReasonCode(resp.RejectCode),
			RawStatus:   resp.Status,
		}, nil
	}
	return entities.ClearingOutcome{
		Accepted:    true,
		TrackingRef: resp.Reference,
		FinalStatus: true,
		RawStatus:   resp.Status,
	}, nil
}

// Poll is a no-op: PayShap's settlement is synchronous, so Submit already
// returns the final outcome and AwaitClearingResult never needs to call Poll.
func (c *PayShapClient) Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	return entities.ClearingOutcome{Accepted: true, FinalStatus: true}, true, nil
}
