package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Customer is the merchant-scoped customer record. The natural key
// (customer_id, merchant_id) backs idempotent creation.
type Customer struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       string          `gorm:"column:customer_id;not null;uniqueIndex:ux_customers_customer_merchant"`
	MerchantID       string          `gorm:"column:merchant_id;not null;uniqueIndex:ux_customers_customer_merchant"`
	Name             *string         `gorm:"column:name"`
	Email            *string         `gorm:"column:email"`
	Phone            *string         `gorm:"column:phone"`
	PhoneCountryCode *string         `gorm:"column:phone_country_code"`
	Description      *string         `gorm:"column:description"`
	AddressID        *uuid.UUID      `gorm:"column:address_id;type:uuid"`
	Metadata         json.RawMessage `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
