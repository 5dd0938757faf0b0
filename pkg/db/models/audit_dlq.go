package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// AuditDLQ captures audit events the publisher gave up on, for remediation.
type AuditDLQ struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID       uuid.UUID                `gorm:"column:event_id;type:uuid;not null"`
	EventType     enums.AuditEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AuditAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   string                   `gorm:"column:aggregate_id;not null"`
	Payload       json.RawMessage          `gorm:"column:payload_json;type:jsonb;not null"`
	ErrorReason   enums.AuditDLQErrorReason `gorm:"column:error_reason;not null"`
	ErrorMessage  *string                  `gorm:"column:error_message"`
	AttemptCount  int                      `gorm:"column:attempt_count;not null;default:0"`
	FailedAt      time.Time                `gorm:"column:failed_at;autoCreateTime"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
}
