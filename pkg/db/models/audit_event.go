package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// AuditEvent is the append-only record of a pipeline outcome, written in the
// same transaction as the tracker updates it describes.
type AuditEvent struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.AuditEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AuditAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   string                   `gorm:"column:aggregate_id;not null"`
	MerchantID    string                   `gorm:"column:merchant_id;not null;index"`
	Payload       json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time               `gorm:"column:published_at"`
	AttemptCount  int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                  `gorm:"column:last_error"`
}
