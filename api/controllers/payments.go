package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kestrelpay/switchboard-backend/api/middleware"
	"github.com/kestrelpay/switchboard-backend/api/responses"
	"github.com/kestrelpay/switchboard-backend/api/validators"
	"github.com/kestrelpay/switchboard-backend/internal/payments"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

// PaymentCreate provisions the intent and first attempt. Replays with the
// same payment_id return the stored record unchanged.
func PaymentCreate(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchant, ok := middleware.MerchantFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant context missing"))
			return
		}

		var req payments.Request
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := service.Create(r.Context(), merchant, &req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// PaymentConfirm authorizes the payment through its connector.
func PaymentConfirm(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentAction(service.Confirm, logg, true)
}

// PaymentCapture settles a previously authorized payment.
func PaymentCapture(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentAction(service.Capture, logg, true)
}

// PaymentCancel voids a payment before capture.
func PaymentCancel(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentAction(service.Cancel, logg, true)
}

// PaymentReject fails a payment on the merchant's fraud decision.
func PaymentReject(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentAction(service.Reject, logg, false)
}

// PaymentExpandAuthorization raises the authorized amount in place.
func PaymentExpandAuthorization(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentAction(service.ExpandAuthorization, logg, true)
}

// PaymentSync reads current state, optionally forcing a connector round trip
// with ?force_sync=true.
func PaymentSync(service *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchant, ok := middleware.MerchantFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant context missing"))
			return
		}

		req := payments.Request{
			PaymentID: chi.URLParam(r, "paymentId"),
			ForceSync: strings.EqualFold(r.URL.Query().Get("force_sync"), "true"),
		}

		resp, err := service.Sync(r.Context(), merchant, &req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type paymentServiceCall func(ctx context.Context, merchant payments.MerchantContext, req *payments.Request) (any, error)

// paymentAction wraps the common shape of the lifecycle endpoints: path
// payment id, optional JSON body, one service call.
func paymentAction(call paymentServiceCall, logg *logger.Logger, decodeBody bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchant, ok := middleware.MerchantFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant context missing"))
			return
		}

		var req payments.Request
		if decodeBody && r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		// The path parameter wins over any body value.
		req.PaymentID = chi.URLParam(r, "paymentId")

		resp, err := call(r.Context(), merchant, &req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
