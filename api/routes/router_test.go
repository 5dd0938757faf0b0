package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/customers"
	"github.com/kestrelpay/switchboard-backend/internal/payments"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/config"
	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
	"github.com/kestrelpay/switchboard-backend/pkg/metrics"
)

type mapLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *mapLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.values[key]; held {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *mapLockStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *mapLockStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type routerLockKeys struct{}

func (routerLockKeys) PaymentLockKey(merchantID, paymentID string) string {
	return "lock:payment:" + merchantID + ":" + paymentID
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE merchant_accounts (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  storage_scheme TEXT NOT NULL DEFAULT 'postgres_only',
  publishable_key TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE payment_intents (
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
		`CREATE TABLE payment_attempts (
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
		`CREATE TABLE addresses (
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
		`CREATE TABLE customers (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  name TEXT, email TEXT, phone TEXT,
  phone_country_code TEXT, description TEXT,
  address_id TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_customers_customer_merchant UNIQUE (customer_id, merchant_id)
);`,
		`CREATE TABLE mandates (
  id TEXT PRIMARY KEY,
  mandate_id TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE audit_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}

	require.NoError(t, conn.Create(&models.MerchantAccount{
		ID:             uuid.New(),
		MerchantID:     "m_router",
		Name:           "Router Test Merchant",
		StorageScheme:  enums.StorageSchemePostgresOnly,
		PublishableKey: "pk_test_router",
	}).Error)

	store := storage.NewGormStore(db.NewWithConn(conn), nil, nil)
	auditService := audit.NewService(audit.NewRepository(conn), nil)
	locker, err := locking.New(&mapLockStore{values: map[string]string{}}, config.LockConfig{}, nil)
	require.NoError(t, err)

	deps := &payments.Deps{
		Store:      store,
		Audit:      auditService,
		Connectors: connectors.NewRegistry(),
	}
	pipeline := payments.NewPipeline(deps, locker, routerLockKeys{}, metrics.NewPipelineMetrics(nil), nil)
	paymentService := payments.NewService(pipeline, false)
	customerService := customers.NewService(store, auditService, nil, nil)

	cfg := &config.Config{}
	cfg.App.Env = "test"

	return NewRouter(cfg, nil, nil, nil, store, paymentService, customerService, nil)
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentsRequireAPIKey(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", strings.NewReader(`{"amount":100,"currency":"USD"}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownAPIKeyIsRejected(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments", strings.NewReader(`{"amount":100,"currency":"USD"}`))
	req.Header.Set("Api-Key", "pk_wrong")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentCreateEndToEnd(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments",
		strings.NewReader(`{"payment_id":"pay_router","amount":1999,"currency":"USD","capture_method":"manual"}`))
	req.Header.Set("Api-Key", "pk_test_router")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			PaymentID string `json:"payment_id"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "pay_router", envelope.Data.PaymentID)
	assert.Equal(t, "requires_confirmation", envelope.Data.Status)

	// The sync endpoint reads it back under the same key.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/payments/pay_router", nil)
	req.Header.Set("Api-Key", "pk_test_router")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCustomerLifecycleEndToEnd(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/customers",
		strings.NewReader(`{"customer_id":"cus_router","name":"Router"}`))
	req.Header.Set("Api-Key", "pk_test_router")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/customers/cus_router", nil)
	req.Header.Set("Api-Key", "pk_test_router")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/customers/cus_router", nil)
	req.Header.Set("Api-Key", "pk_test_router")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
