package dispatch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"payorch.backend/internal/domain/entities"
	"payorch.backend/internal/iso20022"
)

// KafkaDispatcher publishes a pain.002 to the tenant's configured response
// topic, keyed by UETR so all status updates for one payment land on the
// same partition and are consumed in order.
type KafkaDispatcher struct {
	publisher Publisher
}

func NewKafkaDispatcher(publisher Publisher) *KafkaDispatcher {
	return &KafkaDispatcher{publisher: publisher}
}

func (d *KafkaDispatcher) Publish(ctx context.Context, cfg *entities.KafkaResponseConfig, p *entities.Payment) error {
	responseMsgID := generateMsgID()
	doc := iso20022.NewPain002(responseMsgID, p)
	xmlPayload, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("dispatch: marshal pain.002: %w", err)
	}

	envelope := newResponseEnvelope(cfg, p, responseMsgID, xmlPayload)
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("dispatch: marshal response envelope: %w", err)
	}

	override := ""
	if cfg != nil {
		override = cfg.TopicOverride
	}
	topic := entities.ResponseTopic(p.TenantID, p.PaymentType, override)
	return d.publisher.Publish(ctx, topic, string(p.UETR), payload)
}
