package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
	"github.com/kestrelpay/switchboard-backend/pkg/pagination"
)

const cacheTTL = 15 * time.Minute

// GormStore implements Store on GORM with an optional redis write-through
// cache for merchants on the redis_kv scheme. A nil cache degrades every
// scheme to plain database access.
type GormStore struct {
	client *db.Client
	cache  KVCache
	logg   *logger.Logger
}

func NewGormStore(client *db.Client, cache KVCache, logg *logger.Logger) *GormStore {
	return &GormStore{client: client, cache: cache, logg: logg}
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.client.WithTx(ctx, fn)
}

func (s *GormStore) handle(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.client.DB().WithContext(ctx)
}

func (s *GormStore) FindMerchantAccount(ctx context.Context, merchantID string) (*models.MerchantAccount, error) {
	var account models.MerchantAccount
	err := s.handle(ctx, nil).Where("merchant_id = ?", merchantID).First(&account).Error
	if err != nil {
		return nil, lookupError(err, "merchant account")
	}
	return &account, nil
}

// FindMerchantAccountByKey resolves the account behind an API key. Unknown
// keys surface as NOT_FOUND; the auth middleware maps that to UNAUTHORIZED.
func (s *GormStore) FindMerchantAccountByKey(ctx context.Context, publishableKey string) (*models.MerchantAccount, error) {
	var account models.MerchantAccount
	err := s.handle(ctx, nil).Where("publishable_key = ?", publishableKey).First(&account).Error
	if err != nil {
		return nil, lookupError(err, "merchant account")
	}
	return &account, nil
}

func (s *GormStore) FindBusinessProfile(ctx context.Context, profileID uuid.UUID, merchantID string) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := s.handle(ctx, nil).
		Where("id = ? AND merchant_id = ?", profileID, merchantID).
		First(&profile).Error
	if err != nil {
		return nil, lookupError(err, "business profile")
	}
	return &profile, nil
}

func (s *GormStore) FindPaymentIntent(ctx context.Context, paymentID, merchantID string, scheme enums.StorageScheme) (*models.PaymentIntent, error) {
	if s.cacheEnabled(scheme) {
		var intent models.PaymentIntent
		if s.cacheGet(ctx, s.cache.IntentCacheKey(merchantID, paymentID), &intent) {
			return &intent, nil
		}
	}
	var intent models.PaymentIntent
	err := s.handle(ctx, nil).
		Where("payment_id = ? AND merchant_id = ?", paymentID, merchantID).
		First(&intent).Error
	if err != nil {
		return nil, lookupError(err, "payment intent")
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.IntentCacheKey(merchantID, paymentID), intent)
	}
	return &intent, nil
}

func (s *GormStore) InsertPaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent, scheme enums.StorageScheme) (*models.PaymentIntent, error) {
	if err := s.handle(ctx, tx).Create(intent).Error; err != nil {
		return nil, err
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.IntentCacheKey(intent.MerchantID, intent.PaymentID), *intent)
	}
	return intent, nil
}

func (s *GormStore) UpdatePaymentIntent(ctx context.Context, tx *gorm.DB, intent *models.PaymentIntent, update IntentUpdate, scheme enums.StorageScheme) (*models.PaymentIntent, error) {
	conn := s.handle(ctx, tx)
	result := conn.Model(&models.PaymentIntent{}).
		Where("payment_id = ? AND merchant_id = ?", intent.PaymentID, intent.MerchantID).
		Updates(update.intentColumns())
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating payment intent")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
	}
	var updated models.PaymentIntent
	err := conn.Where("payment_id = ? AND merchant_id = ?", intent.PaymentID, intent.MerchantID).
		First(&updated).Error
	if err != nil {
		return nil, lookupError(err, "payment intent")
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.IntentCacheKey(updated.MerchantID, updated.PaymentID), updated)
	}
	return &updated, nil
}

func (s *GormStore) FindPaymentAttempt(ctx context.Context, paymentID, merchantID, attemptID string, scheme enums.StorageScheme) (*models.PaymentAttempt, error) {
	if s.cacheEnabled(scheme) {
		var attempt models.PaymentAttempt
		if s.cacheGet(ctx, s.cache.AttemptCacheKey(merchantID, paymentID, attemptID), &attempt) {
			return &attempt, nil
		}
	}
	var attempt models.PaymentAttempt
	err := s.handle(ctx, nil).
		Where("payment_id = ? AND merchant_id = ? AND attempt_id = ?", paymentID, merchantID, attemptID).
		First(&attempt).Error
	if err != nil {
		return nil, lookupError(err, "payment attempt")
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.AttemptCacheKey(merchantID, paymentID, attemptID), attempt)
	}
	return &attempt, nil
}

func (s *GormStore) InsertPaymentAttempt(ctx context.Context, tx *gorm.DB, attempt *models.PaymentAttempt, scheme enums.StorageScheme) (*models.PaymentAttempt, error) {
	if err := s.handle(ctx, tx).Create(attempt).Error; err != nil {
		return nil, err
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.AttemptCacheKey(attempt.MerchantID, attempt.PaymentID, attempt.AttemptID), *attempt)
	}
	return attempt, nil
}

func (s *GormStore) UpdatePaymentAttempt(ctx context.Context, tx *gorm.DB, attempt *models.PaymentAttempt, update AttemptUpdate, scheme enums.StorageScheme) (*models.PaymentAttempt, error) {
	conn := s.handle(ctx, tx)
	result := conn.Model(&models.PaymentAttempt{}).
		Where("payment_id = ? AND merchant_id = ? AND attempt_id = ?", attempt.PaymentID, attempt.MerchantID, attempt.AttemptID).
		Updates(update.attemptColumns())
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating payment attempt")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment attempt not found")
	}
	var updated models.PaymentAttempt
	err := conn.Where("payment_id = ? AND merchant_id = ? AND attempt_id = ?", attempt.PaymentID, attempt.MerchantID, attempt.AttemptID).
		First(&updated).Error
	if err != nil {
		return nil, lookupError(err, "payment attempt")
	}
	if s.cacheEnabled(scheme) {
		s.cacheSet(ctx, s.cache.AttemptCacheKey(updated.MerchantID, updated.PaymentID, updated.AttemptID), updated)
	}
	return &updated, nil
}

func (s *GormStore) FindAddress(ctx context.Context, addressID uuid.UUID, merchantID string) (*models.Address, error) {
	var address models.Address
	err := s.handle(ctx, nil).
		Where("id = ? AND merchant_id = ?", addressID, merchantID).
		First(&address).Error
	if err != nil {
		return nil, lookupError(err, "address")
	}
	return &address, nil
}

func (s *GormStore) InsertAddress(ctx context.Context, tx *gorm.DB, address *models.Address) (*models.Address, error) {
	if err := s.handle(ctx, tx).Create(address).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting address")
	}
	return address, nil
}

func (s *GormStore) RedactCustomerAddresses(ctx context.Context, tx *gorm.DB, customerID, merchantID string) error {
	err := s.handle(ctx, tx).Model(&models.Address{}).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		Updates(AddressRedactionUpdate{}.addressColumns()).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redacting customer addresses")
	}
	return nil
}

func (s *GormStore) FindFraudCheck(ctx context.Context, paymentID, merchantID string) (*models.FraudCheck, error) {
	var check models.FraudCheck
	err := s.handle(ctx, nil).
		Where("payment_id = ? AND merchant_id = ?", paymentID, merchantID).
		Order("created_at DESC").
		First(&check).Error
	if err != nil {
		return nil, lookupError(err, "fraud check")
	}
	return &check, nil
}

func (s *GormStore) FindActiveMandates(ctx context.Context, customerID, merchantID string) ([]models.Mandate, error) {
	var mandates []models.Mandate
	err := s.handle(ctx, nil).
		Where("customer_id = ? AND merchant_id = ? AND status = ?", customerID, merchantID, enums.MandateStatusActive).
		Find(&mandates).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing mandates")
	}
	return mandates, nil
}

func (s *GormStore) FindCustomer(ctx context.Context, customerID, merchantID string) (*models.Customer, error) {
	var customer models.Customer
	err := s.handle(ctx, nil).
		Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		First(&customer).Error
	if err != nil {
		return nil, lookupError(err, "customer")
	}
	return &customer, nil
}

func (s *GormStore) InsertCustomer(ctx context.Context, tx *gorm.DB, customer *models.Customer) (*models.Customer, error) {
	if err := s.handle(ctx, tx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *GormStore) UpdateCustomer(ctx context.Context, tx *gorm.DB, customerID, merchantID string, update CustomerUpdate) (*models.Customer, error) {
	conn := s.handle(ctx, tx)
	cols := update.customerColumns()
	if len(cols) > 0 {
		result := conn.Model(&models.Customer{}).
			Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
			Updates(cols)
		if result.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "updating customer")
		}
		if result.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
	}
	var updated models.Customer
	err := conn.Where("customer_id = ? AND merchant_id = ?", customerID, merchantID).
		First(&updated).Error
	if err != nil {
		return nil, lookupError(err, "customer")
	}
	return &updated, nil
}

// ListCustomers pages newest-first on (created_at, id). The cursor points at
// the last row of the previous page; a nil cursor starts from the top.
func (s *GormStore) ListCustomers(ctx context.Context, merchantID string, cursor *pagination.Cursor, limit int) ([]models.Customer, error) {
	query := s.handle(ctx, nil).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customers")
	}
	return customers, nil
}

func (s *GormStore) cacheEnabled(scheme enums.StorageScheme) bool {
	return s.cache != nil && scheme == enums.StorageSchemeRedisKV
}

func (s *GormStore) cacheGet(ctx context.Context, key string, dest any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Poisoned entries are dropped so the next read repopulates.
		_ = s.cache.Del(ctx, key)
		return false
	}
	return true
}

// cacheSet refreshes the write-through cache. Failures are logged, never
// surfaced; the database row is the source of truth.
func (s *GormStore) cacheSet(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "cache refresh failed: "+err.Error())
	}
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding "+what)
}
