package rails

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
)

// BankservClient submits a pacs.008 to the Bankserv ACH rail and polls its
// pacs.002 status endpoint, per spec §5.3. Bankserv settles on an overnight
// batch cycle, so Submit's synchronous response is only ever an intake
// acknowledgement; the real outcome always arrives via Poll.
type BankservClient struct{}

func NewBankservClient() *BankservClient { return &BankservClient{} }

func (c *BankservClient) Rail() entities.ClearingRail { return entities.ClearingRailBankserv }

func (c *BankservClient) Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error) {
	doc := iso20022.NewPacs008(uuid.NewString(), iso20022.ClrSysBankserv, p)
	var ack struct {
		Accepted bool `xml:"Accepted"`
	}
	if err := postXML(ctx, cfg, doc, &ack); err != nil {
		return entities.ClearingOutcome{}, err
	}
	return entities.ClearingOutcome{
		Accepted:    true,
		TrackingRef: fmt.Sprintf("BANKSERV-%s", p.UETR),
		FinalStatus: false,
	}, nil
}

func (c *BankservClient) Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, pollRequest{UETR: string(p.UETR)}, &status); err != nil {
		return entities.ClearingOutcome{}, false, err
	}
	outcome := status.ClearingOutcome()
	return outcome, outcome.FinalStatus, nil
}

type pollRequest struct {
	UETR string `xml:"UETR"`
}
