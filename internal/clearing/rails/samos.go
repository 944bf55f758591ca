package rails

import (
	"fmt"

	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
)

// SAMOSClient submits high-value ZAR payments to the SARB Real Time Gross
// Settlement system via pacs.008. SAMOS settles each instruction
// individually and near-instantly, so like RTC the synchronous response
// already carries the final outcome.
type SAMOSClient struct{}

func NewSAMOSClient() *SAMOSClient { return &SAMOSClient{} }

func (c *SAMOSClient) Rail() entities.ClearingRail { return entities.ClearingRailSAMOS }

const clrSysSAMOS = "ZA-SAMOS"

func (c *SAMOSClient) Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error) {
	doc := iso20022.NewPacs008(uuid.NewString(), clrSysSAMOS, p)
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, doc, &status); err != nil {
		return entities.ClearingOutcome{}, err
	}
	outcome := status.ClearingOutcome()
	if outcome.TrackingRef == "" {
		outcome.TrackingRef = fmt.Sprintf("SAMOS-%s", p.UETR)
	}
	return outcome, nil
}

func (c *SAMOSClient) Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, pollRequest{UETR: string(p.UETR)}, &status); err != nil {
		return entities.ClearingOutcome{}, false, err
	}
	outcome := status.ClearingOutcome()
	return outcome, outcome.FinalStatus, nil
}
