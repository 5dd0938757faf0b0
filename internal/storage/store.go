package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	"github.com/kestrelpay/switchboard-backend/pkg/pagination"
)

// Store is the persistence surface the payment pipeline runs against. The
// same contract backs both storage schemes; callers never branch on scheme
// beyond passing it through. Every lookup returns a NOT_FOUND or
// INTERNAL_ERROR typed error, never a raw driver error.
type Store interface {
	// WithTx runs fn inside one database transaction. Update methods accept
	// the transaction handle so tracker updates and the audit event commit
	// together.
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	FindMerchantAccount(ctx context.Context, merchantID string) (*models.MerchantAccount, error)
	FindMerchantAccountByKey(ctx context.Context, publishableKey string) (*models.MerchantAccount, error)
	FindBusinessProfile(ctx context.Context, profileID uuid.UUID, merchantID string) (*models.BusinessProfile, error)

	FindPaymentIntent(ctx context.Context, paymentID, merchantID string, scheme enums.StorageScheme) (*models.PaymentIntent, error)
	InsertPaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent, scheme enums.StorageScheme) (*models.PaymentIntent, error)
	UpdatePaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent, update IntentUpdate, scheme enums.StorageScheme) (*models.PaymentIntent, error)

	FindPaymentAttempt(ctx context.Context, paymentID, merchantID, attemptID string, scheme enums.StorageScheme) (*models.PaymentAttempt, error)
	InsertPaymentAttempt(ctx context.Context, tx *gorm.DB, attempt *models.PaymentAttempt, scheme enums.StorageScheme) (*models.PaymentAttempt, error)
	UpdatePaymentAttempt(ctx context.Context, tx *gorm.DB, attempt *models.PaymentAttempt, update AttemptUpdate, scheme enums.StorageScheme) (*models.PaymentAttempt, error)

	FindAddress(ctx context.Context, addressID uuid.UUID, merchantID string) (*models.Address, error)
	InsertAddress(ctx context.Context, tx *gorm.DB, address *models.Address) (*models.Address, error)
	RedactCustomerAddresses(ctx context.Context, tx *gorm.DB, customerID, merchantID string) error

	FindFraudCheck(ctx context.Context, paymentID, merchantID string) (*models.FraudCheck, error)
	FindActiveMandates(ctx context.Context, customerID, merchantID string) ([]models.Mandate, error)

	FindCustomer(ctx context.Context, customerID, merchantID string) (*models.Customer, error)
	InsertCustomer(ctx context.Context, tx *gorm.DB, customer *models.Customer) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, tx *gorm.DB, customerID, merchantID string, update CustomerUpdate) (*models.Customer, error)
	ListCustomers(ctx context.Context, merchantID string, cursor *pagination.Cursor, limit int) ([]models.Customer, error)
}

// KVCache is the write-through cache surface used when a merchant runs on the
// redis_kv scheme. pkg/redis.Client satisfies it.
type KVCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IntentCacheKey(merchantID, paymentID string) string
	AttemptCacheKey(merchantID, paymentID, attemptID string) string
}
