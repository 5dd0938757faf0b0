package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// PaymentAttempt is one connector-targeted attempt to execute a PaymentIntent.
// An intent may accumulate attempts across retries; superseded attempts remain
// for history.
type PaymentAttempt struct {
	ID                            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AttemptID                     string              `gorm:"column:attempt_id;not null;uniqueIndex:ux_payment_attempts_payment_merchant_attempt"`
	PaymentID                     string              `gorm:"column:payment_id;not null;uniqueIndex:ux_payment_attempts_payment_merchant_attempt"`
	MerchantID                    string              `gorm:"column:merchant_id;not null;uniqueIndex:ux_payment_attempts_payment_merchant_attempt"`
	Status                        enums.AttemptStatus `gorm:"column:status;type:attempt_status;not null;default:'started'"`
	AmountMinor                   int64               `gorm:"column:amount_minor;not null"`
	Currency                      enums.Currency      `gorm:"column:currency;not null"`
	Connector                     *string             `gorm:"column:connector"`
	ConnectorTransactionID        *string             `gorm:"column:connector_transaction_id"`
	ErrorCode                     *string             `gorm:"column:error_code"`
	ErrorMessage                  *string             `gorm:"column:error_message"`
	PaymentMethodBillingAddressID *uuid.UUID          `gorm:"column:payment_method_billing_address_id;type:uuid"`
	CardReference                 *string             `gorm:"column:card_reference"`
	UpdatedBy                     string              `gorm:"column:updated_by;not null;default:'postgres_only'"`
	CreatedAt                     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Amount returns the attempt amount in major units.
func (a PaymentAttempt) Amount() decimal.Decimal {
	return decimal.New(a.AmountMinor, -2)
}
