package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kestrelpay/switchboard-backend/api/responses"
	"github.com/kestrelpay/switchboard-backend/internal/payments"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

const apiKeyHeader = "Api-Key"

type merchantContextKey struct{}

// MerchantAuth resolves the merchant account behind the Api-Key header and
// attaches it to the request context. Unknown keys always answer 401; the
// response never distinguishes a missing key from an unknown one.
func MerchantAuth(store storage.Store, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "api key required"))
				return
			}

			account, err := store.FindMerchantAccountByKey(r.Context(), key)
			if err != nil {
				if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
					err = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid api key")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithMerchantID(ctx, account.MerchantID)
			}
			ctx = context.WithValue(ctx, merchantContextKey{}, payments.MerchantContext{Account: account})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MerchantFromContext returns the authenticated merchant placed by
// MerchantAuth.
func MerchantFromContext(ctx context.Context) (payments.MerchantContext, bool) {
	merchant, ok := ctx.Value(merchantContextKey{}).(payments.MerchantContext)
	return merchant, ok
}
