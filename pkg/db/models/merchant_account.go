package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// MerchantAccount holds per-merchant configuration, including the storage
// scheme every pipeline invocation resolves its persistence strategy from.
type MerchantAccount struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID     string              `gorm:"column:merchant_id;not null;unique"`
	Name           string              `gorm:"column:name;not null"`
	StorageScheme  enums.StorageScheme `gorm:"column:storage_scheme;type:storage_scheme;not null;default:'postgres_only'"`
	PublishableKey string              `gorm:"column:publishable_key;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
