package rails

import (
	"fmt"

	"context"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
)

// RTCClient submits a pacs.008 to the Real Time Clearing rail. Unlike
// Bankserv, RTC settles within seconds, so Submit's response already carries
// the final settlement outcome and Poll is never reached in practice; it is
// still implemented for the rare case the synchronous leg times out and the
// saga falls back to polling.
type RTCClient struct{}

func NewRTCClient() *RTCClient { return &RTCClient{} }

func (c *RTCClient) Rail() entities.ClearingRail { return entities.ClearingRailRTC }

func (c *RTCClient) Submit(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, error) {
	doc := iso20022.NewPacs008(uuid.NewString(), iso20022.ClrSysRTC, p)
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, doc, &status); err != nil {
		return entities.ClearingOutcome{}, err
	}
	outcome := status.ClearingOutcome()
	if outcome.TrackingRef == "" {
		outcome.TrackingRef = fmt.Sprintf("RTC-%s", p.UETR)
	}
	return outcome, nil
}

func (c *RTCClient) Poll(ctx context.Context, cfg *entities.ClearingAdapterConfig, p *entities.Payment) (entities.ClearingOutcome, bool, error) {
	var status iso20022.Pacs002Document
	if err := postXML(ctx, cfg, pollRequest{UETR: string(p.UETR)}, &status); err != nil {
		return entities.ClearingOutcome{}, false, err
	}
	outcome := status.ClearingOutcome()
	return outcome, outcome.FinalStatus, nil
}
