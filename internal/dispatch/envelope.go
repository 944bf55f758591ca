package dispatch

import (
	"time"

	"payorch.backend/internal/domain/entities"
)

// kafkaMessageType is the ISO 20022 document type carried by every
// KafkaTopic response envelope, per spec §4.5.
const kafkaMessageType = "pain.002.001.03"

// RoutingHints carries the tenant's configured downstream consumers for a
// KafkaTopic response, copied verbatim from KafkaResponseConfig so a
// consumer never has to re-resolve tenant configuration to route the
// message onward.
type RoutingHints struct {
	TargetSystems []string `json:"targetSystems,omitempty"`
	Priority      string   `json:"priority,omitempty"`
}

// ResponseEnvelope wraps a pain.002 document published to a KafkaTopic
// response mode, per spec §4.5: consumers correlate on tenantId and the
// message ids without having to parse the embedded ISO 20022 XML first.
type ResponseEnvelope struct {
	MessageType        string       `json:"messageType"`
	TenantID           string       `json:"tenantId"`
	PaymentType        string       `json:"paymentType"`
	OriginalMessageID  string       `json:"originalMessageId"`
	ResponseMessageID  string       `json:"responseMessageId"`
	Timestamp          time.Time    `json:"timestamp"`
	ResponseMode       string       `json:"responseMode"`
	RoutingHints       RoutingHints `json:"routingHints"`
	Payload            string       `json:"payload"`
}

func newResponseEnvelope(cfg *entities.KafkaResponseConfig, p *entities.Payment, responseMsgID string, payload []byte) *ResponseEnvelope {
	hints := RoutingHints{}
	if cfg != nil {
		hints.TargetSystems = cfg.TargetSystems
		hints.Priority = cfg.Priority
	}
	return &ResponseEnvelope{
		MessageType:       kafkaMessageType,
		TenantID:          p.TenantID.String(),
		PaymentType:       string(p.PaymentType),
		OriginalMessageID: p.OriginalMsgID,
		ResponseMessageID: responseMsgID,
		Timestamp:         time.Now().UTC(),
		ResponseMode:      string(entities.ResponseModeKafkaTopic),
		RoutingHints:      hints,
		Payload:           string(payload),
	}
}
