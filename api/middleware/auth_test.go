package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/db"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

func setupAuthTestStore(t *testing.T) *storage.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE merchant_accounts (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  storage_scheme TEXT NOT NULL DEFAULT 'postgres_only',
  publishable_key TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	require.NoError(t, conn.Create(&models.MerchantAccount{
		ID:             uuid.New(),
		MerchantID:     "m_auth",
		Name:           "Auth Test Merchant",
		StorageScheme:  enums.StorageSchemePostgresOnly,
		PublishableKey: "pk_test_auth",
	}).Error)

	return storage.NewGormStore(db.NewWithConn(conn), nil, nil)
}

func TestMerchantAuthRejectsMissingKey(t *testing.T) {
	store := setupAuthTestStore(t)

	handler := MerchantAuth(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without an api key")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/pay_1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMerchantAuthRejectsUnknownKey(t *testing.T) {
	store := setupAuthTestStore(t)

	handler := MerchantAuth(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for an unknown api key")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/pay_1", nil)
	req.Header.Set("Api-Key", "pk_test_wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMerchantAuthAttachesMerchantContext(t *testing.T) {
	store := setupAuthTestStore(t)

	var sawMerchant string
	handler := MerchantAuth(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		merchant, ok := MerchantFromContext(r.Context())
		require.True(t, ok)
		sawMerchant = merchant.MerchantID()
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/pay_1", nil)
	req.Header.Set("Api-Key", "pk_test_auth")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "m_auth", sawMerchant)
}
