package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// PaymentIntent is the merchant-facing logical payment record. Exactly one row
// exists per (payment_id, merchant_id); attempts hang off it.
type PaymentIntent struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID         string              `gorm:"column:payment_id;not null;uniqueIndex:ux_payment_intents_payment_merchant"`
	MerchantID        string              `gorm:"column:merchant_id;not null;uniqueIndex:ux_payment_intents_payment_merchant"`
	Status            enums.IntentStatus  `gorm:"column:status;type:intent_status;not null;default:'requires_confirmation'"`
	AmountMinor       int64               `gorm:"column:amount_minor;not null"`
	Currency          enums.Currency      `gorm:"column:currency;not null"`
	CaptureMethod     enums.CaptureMethod `gorm:"column:capture_method;type:capture_method;not null;default:'automatic'"`
	ProfileID         *uuid.UUID          `gorm:"column:profile_id;type:uuid"`
	ActiveAttemptID   *string             `gorm:"column:active_attempt_id"`
	CustomerID        *string             `gorm:"column:customer_id"`
	ShippingAddressID *uuid.UUID          `gorm:"column:shipping_address_id;type:uuid"`
	BillingAddressID  *uuid.UUID          `gorm:"column:billing_address_id;type:uuid"`
	Description       *string             `gorm:"column:description"`
	MerchantDecision  *string             `gorm:"column:merchant_decision"`
	UpdatedBy         string              `gorm:"column:updated_by;not null;default:'postgres_only'"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Amount returns the intent amount in major units.
func (p PaymentIntent) Amount() decimal.Decimal {
	return decimal.New(p.AmountMinor, -2)
}
