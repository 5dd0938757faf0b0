package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

func setupStorageTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS payment_intents (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'requires_confirmation',
  amount_minor INTEGER NOT NULL,
  currency TEXT NOT NULL,
  capture_method TEXT NOT NULL DEFAULT 'automatic',
  profile_id TEXT,
  active_attempt_id TEXT,
  customer_id TEXT,
  shipping_address_id TEXT,
  billing_address_id TEXT,
  description TEXT,
  merchant_decision TEXT,
  updated_by TEXT NOT NULL DEFAULT 'postgres_only',
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_payment_intents_payment_merchant UNIQUE (payment_id, merchant_id)
);`,
		`CREATE TABLE IF NOT EXISTS payment_attempts (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL,
  payment_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'started',
  amount_minor INTEGER NOT NULL,
  currency TEXT NOT NULL,
  connector TEXT,
  connector_transaction_id TEXT,
  error_code TEXT,
  error_message TEXT,
  payment_method_billing_address_id TEXT,
  card_reference TEXT,
  updated_by TEXT NOT NULL DEFAULT 'postgres_only',
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_payment_attempts_payment_merchant_attempt UNIQUE (attempt_id, payment_id, merchant_id)
);`,
		`CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  name TEXT,
  email TEXT,
  phone TEXT,
  phone_country_code TEXT,
  description TEXT,
  address_id TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_customers_customer_merchant UNIQUE (customer_id, merchant_id)
);`,
		`CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  customer_id TEXT,
  line1 TEXT, line2 TEXT, line3 TEXT,
  city TEXT, state TEXT, zip TEXT, country TEXT,
  first_name TEXT, last_name TEXT,
  phone_number TEXT, country_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS fraud_checks (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  attempt_id TEXT NOT NULL,
  status TEXT NOT NULL,
  reason TEXT,
  score TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS mandates (
  id TEXT PRIMARY KEY,
  mandate_id TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS merchant_accounts (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  storage_scheme TEXT NOT NULL DEFAULT 'postgres_only',
  publishable_key TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS business_profiles (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  use_billing_as_payment_method_billing INTEGER NOT NULL DEFAULT 1,
  webhook_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newTestStore(t *testing.T, conn *gorm.DB, cache KVCache) *GormStore {
	t.Helper()
	return NewGormStore(db.NewWithConn(conn), cache, nil)
}

func seedIntent(t *testing.T, conn *gorm.DB, paymentID, merchantID string, status enums.IntentStatus) *models.PaymentIntent {
	t.Helper()

	intent := &models.PaymentIntent{
		ID:            uuid.New(),
		PaymentID:     paymentID,
		MerchantID:    merchantID,
		Status:        status,
		AmountMinor:   6540,
		Currency:      enums.CurrencyUSD,
		CaptureMethod: enums.CaptureMethodAutomatic,
		UpdatedBy:     enums.StorageSchemePostgresOnly.String(),
	}
	require.NoError(t, conn.Create(intent).Error)
	return intent
}

func seedAttempt(t *testing.T, conn *gorm.DB, paymentID, merchantID, attemptID string, status enums.AttemptStatus) *models.PaymentAttempt {
	t.Helper()

	attempt := &models.PaymentAttempt{
		ID:          uuid.New(),
		AttemptID:   attemptID,
		PaymentID:   paymentID,
		MerchantID:  merchantID,
		Status:      status,
		AmountMinor: 6540,
		Currency:    enums.CurrencyUSD,
		UpdatedBy:   enums.StorageSchemePostgresOnly.String(),
	}
	require.NoError(t, conn.Create(attempt).Error)
	return attempt
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return "", fmt.Errorf("key %q missing", key)
	}
	return value, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) IntentCacheKey(merchantID, paymentID string) string {
	return "intent:" + merchantID + ":" + paymentID
}

func (f *fakeCache) AttemptCacheKey(merchantID, paymentID, attemptID string) string {
	return "attempt:" + merchantID + ":" + paymentID + ":" + attemptID
}

func TestUpdatePaymentIntentAppliesTypedColumns(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)
	ctx := context.Background()

	intent := seedIntent(t, conn, "pay_typed", "merchant_1", enums.IntentStatusRequiresCapture)

	updated, err := store.UpdatePaymentIntent(ctx, nil, intent, IntentRejectUpdate{
		Status:           enums.IntentStatusFailed,
		MerchantDecision: enums.MerchantDecisionRejected,
		UpdatedBy:        enums.StorageSchemePostgresOnly,
	}, enums.StorageSchemePostgresOnly)
	require.NoError(t, err)

	assert.Equal(t, enums.IntentStatusFailed, updated.Status)
	require.NotNil(t, updated.MerchantDecision)
	assert.Equal(t, "rejected", *updated.MerchantDecision)
	assert.Equal(t, "postgres_only", updated.UpdatedBy)
	// Identity fields survive the update untouched.
	assert.Equal(t, intent.PaymentID, updated.PaymentID)
	assert.Equal(t, intent.MerchantID, updated.MerchantID)
	assert.Equal(t, intent.AmountMinor, updated.AmountMinor)
}

func TestUpdatePaymentIntentMissingRowIsNotFound(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)

	_, err := store.UpdatePaymentIntent(context.Background(), nil, &models.PaymentIntent{
		PaymentID:  "pay_missing",
		MerchantID: "merchant_1",
	}, IntentStatusUpdate{
		Status:    enums.IntentStatusCancelled,
		UpdatedBy: enums.StorageSchemePostgresOnly,
	}, enums.StorageSchemePostgresOnly)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdatePaymentAttemptCarriesErrorFields(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)
	ctx := context.Background()

	attempt := seedAttempt(t, conn, "pay_err", "merchant_1", "att_1", enums.AttemptStatusAuthorized)

	code := "fraud_block"
	message := "high risk score"
	updated, err := store.UpdatePaymentAttempt(ctx, nil, attempt, AttemptRejectUpdate{
		Status:       enums.AttemptStatusFailure,
		ErrorCode:    &code,
		ErrorMessage: &message,
		UpdatedBy:    enums.StorageSchemePostgresOnly,
	}, enums.StorageSchemePostgresOnly)
	require.NoError(t, err)

	assert.Equal(t, enums.AttemptStatusFailure, updated.Status)
	require.NotNil(t, updated.ErrorCode)
	assert.Equal(t, "fraud_block", *updated.ErrorCode)
	require.NotNil(t, updated.ErrorMessage)
	assert.Equal(t, "high risk score", *updated.ErrorMessage)
}

func TestFindPaymentIntentNotFound(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)

	_, err := store.FindPaymentIntent(context.Background(), "pay_nope", "merchant_1", enums.StorageSchemePostgresOnly)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRedisKVSchemeWritesThroughCache(t *testing.T) {
	conn := setupStorageTestDB(t)
	cache := newFakeCache()
	store := newTestStore(t, conn, cache)
	ctx := context.Background()

	intent := seedIntent(t, conn, "pay_kv", "merchant_kv", enums.IntentStatusRequiresCapture)

	_, err := store.UpdatePaymentIntent(ctx, nil, intent, IntentStatusUpdate{
		Status:    enums.IntentStatusSucceeded,
		UpdatedBy: enums.StorageSchemeRedisKV,
	}, enums.StorageSchemeRedisKV)
	require.NoError(t, err)

	cached, err := cache.Get(ctx, cache.IntentCacheKey("merchant_kv", "pay_kv"))
	require.NoError(t, err)
	assert.Contains(t, cached, "succeeded")

	// Cached reads survive the row disappearing underneath.
	require.NoError(t, conn.Exec(`DELETE FROM payment_intents WHERE payment_id = 'pay_kv'`).Error)
	found, err := store.FindPaymentIntent(ctx, "pay_kv", "merchant_kv", enums.StorageSchemeRedisKV)
	require.NoError(t, err)
	assert.Equal(t, enums.IntentStatusSucceeded, found.Status)
}

func TestPostgresOnlySchemeSkipsCache(t *testing.T) {
	conn := setupStorageTestDB(t)
	cache := newFakeCache()
	store := newTestStore(t, conn, cache)
	ctx := context.Background()

	intent := seedIntent(t, conn, "pay_pg", "merchant_pg", enums.IntentStatusRequiresCapture)

	_, err := store.UpdatePaymentIntent(ctx, nil, intent, IntentStatusUpdate{
		Status:    enums.IntentStatusSucceeded,
		UpdatedBy: enums.StorageSchemePostgresOnly,
	}, enums.StorageSchemePostgresOnly)
	require.NoError(t, err)

	_, err = cache.Get(ctx, cache.IntentCacheKey("merchant_pg", "pay_pg"))
	assert.Error(t, err)
}

func TestRedactCustomerAddressesOverwritesPII(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)
	ctx := context.Background()

	customerID := "cus_1"
	line1 := "500 Market St"
	address := &models.Address{
		ID:         uuid.New(),
		MerchantID: "merchant_1",
		CustomerID: &customerID,
		Line1:      &line1,
	}
	require.NoError(t, conn.Create(address).Error)

	require.NoError(t, store.RedactCustomerAddresses(ctx, nil, customerID, "merchant_1"))

	reloaded, err := store.FindAddress(ctx, address.ID, "merchant_1")
	require.NoError(t, err)
	require.NotNil(t, reloaded.Line1)
	assert.Equal(t, "Redacted", *reloaded.Line1)
	require.NotNil(t, reloaded.City)
	assert.Equal(t, "Redacted", *reloaded.City)
}

func TestFindActiveMandatesFiltersStatus(t *testing.T) {
	conn := setupStorageTestDB(t)
	store := newTestStore(t, conn, nil)
	ctx := context.Background()

	rows := []models.Mandate{
		{ID: uuid.New(), MandateID: "man_1", CustomerID: "cus_1", MerchantID: "merchant_1", Status: enums.MandateStatusActive},
		{ID: uuid.New(), MandateID: "man_2", CustomerID: "cus_1", MerchantID: "merchant_1", Status: enums.MandateStatusRevoked},
	}
	for i := range rows {
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	mandates, err := store.FindActiveMandates(ctx, "cus_1", "merchant_1")
	require.NoError(t, err)
	require.Len(t, mandates, 1)
	assert.Equal(t, "man_1", mandates[0].MandateID)
}
