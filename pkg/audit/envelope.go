package audit

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	MerchantID string `json:"merchantId"`
	APIKeyID   string `json:"apiKeyId,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in audit_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
