package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is referenced by intents (shipping/billing), attempts
// (payment-method billing) and customers. Immutable once associated except
// through an explicit redaction update; intent and attempt may share a row.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID  string    `gorm:"column:merchant_id;not null;index"`
	CustomerID  *string   `gorm:"column:customer_id;index"`
	Line1       *string   `gorm:"column:line1"`
	Line2       *string   `gorm:"column:line2"`
	Line3       *string   `gorm:"column:line3"`
	City        *string   `gorm:"column:city"`
	State       *string   `gorm:"column:state"`
	Zip         *string   `gorm:"column:zip"`
	Country     *string   `gorm:"column:country"`
	FirstName   *string   `gorm:"column:first_name"`
	LastName    *string   `gorm:"column:last_name"`
	PhoneNumber *string   `gorm:"column:phone_number"`
	CountryCode *string   `gorm:"column:country_code"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
