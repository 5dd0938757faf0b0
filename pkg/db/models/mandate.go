package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// Mandate is a customer's authorization for recurring charges. Customers with
// an active mandate cannot be redacted.
type Mandate struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MandateID  string              `gorm:"column:mandate_id;not null;unique"`
	CustomerID string              `gorm:"column:customer_id;not null;index:ix_mandates_customer_merchant"`
	MerchantID string              `gorm:"column:merchant_id;not null;index:ix_mandates_customer_merchant"`
	Status     enums.MandateStatus `gorm:"column:status;type:mandate_status;not null;default:'pending'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
