package rails

import (
	"fmt"

	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
)

// SWIFTClient submits cross-border payments over a SWIFT gpi-style gateway
// using pacs.008. Correspondent settlement can take hours across
// intermediary banks, so like Bankserv, Submit only returns network
// acknowledgement and the real outcome is learned by polling (or, in
// production, by a gpi tracker webhook landing on the callback usecase).
type SWIFTClient struct{}

func NewSWIFTClient() *SWIFTClient { return &SWIFTClient{} }

func (c *SWIFTClient) Rail() entities.ClearingRail { return entities.ClearingRailSWIFT }

const clrSysSWIFTGPI = "SWIFT-GPI"

func (c *SWIFTClient) Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error) {
	doc := iso20022.NewPacs008(uuid.NewString(), clrSysSWIFTGPI, p)
	var ack struct {
		Accepted bool `xml:"Accepted"`
	}
	if err := postXML(ctx, cfg, doc, &ack); err != nil {
		return entities.ClearingOutcome{}, err
	}
	return entities.ClearingOutcome{
		Accepted:    true,
		TrackingRef: fmt.Sprintf("SWIFT-%s", p.UETR),
		FinalStatus: false,
	}, nil
}

func (c *SWIFTClient) Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, pollRequest{UETR: string(p.UETR)}, &status); err != nil {
		return entities.ClearingOutcome{}, false, err
	}
	outcome := status.ClearingOutcome()
	return outcome, outcome.FinalStatus, nil
}
