package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessProfile is the merchant-configured policy bag resolved once per
// pipeline invocation; read-only inside the pipeline.
type BusinessProfile struct {
	ID                               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID                       string    `gorm:"column:merchant_id;not null;index"`
	Name                             string    `gorm:"column:name;not null"`
	UseBillingAsPaymentMethodBilling bool      `gorm:"column:use_billing_as_payment_method_billing;not null;default:true"`
	WebhookURL                       *string   `gorm:"column:webhook_url"`
	CreatedAt                        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
