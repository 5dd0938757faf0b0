package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FraudCheck stores the outcome of a fraud screen for a payment. The reject
// operation copies its status/reason into the attempt's error fields.
type FraudCheck struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID  string           `gorm:"column:payment_id;not null;index:ix_fraud_checks_payment_merchant"`
	MerchantID string           `gorm:"column:merchant_id;not null;index:ix_fraud_checks_payment_merchant"`
	AttemptID  string           `gorm:"column:attempt_id;not null"`
	Status     string           `gorm:"column:status;not null"`
	Reason     *string          `gorm:"column:reason"`
	Score      *decimal.Decimal `gorm:"column:score;type:numeric(5,2)"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}
