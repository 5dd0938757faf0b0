package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

// trackerOptions tunes what loadWorkingSet pulls in beyond the intent and
// active attempt.
type trackerOptions struct {
	operation    string
	forbidden    []enums.IntentStatus
	loadFraud    bool
	loadProfile  bool
	loadMandates bool
}

// loadWorkingSet is the shared GetTracker body for every operation that acts
// on an existing payment: load the intent, run the guard, load the active
// attempt, resolve addresses and the optional sub-records.
func loadWorkingSet(ctx context.Context, deps *Deps, vr *ValidateResult, opts trackerOptions) (*WorkingSet, error) {
	intent, err := deps.Store.FindPaymentIntent(ctx, vr.PaymentID, vr.MerchantID, vr.StorageScheme)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(intent.Status, opts.forbidden, opts.operation); err != nil {
		return nil, err
	}

	if intent.ActiveAttemptID == nil || *intent.ActiveAttemptID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment has no active attempt")
	}
	attempt, err := deps.Store.FindPaymentAttempt(ctx, vr.PaymentID, vr.MerchantID, *intent.ActiveAttemptID, vr.StorageScheme)
	if err != nil {
		return nil, err
	}

	ws := &WorkingSet{
		Flow:        FlowPayment,
		Intent:      intent,
		Attempt:     attempt,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
	}

	if intent.ShippingAddressID != nil {
		if address, err := deps.Store.FindAddress(ctx, *intent.ShippingAddressID, vr.MerchantID); err == nil {
			ws.Addresses.Shipping = address
		} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
	}
	if intent.BillingAddressID != nil {
		if address, err := deps.Store.FindAddress(ctx, *intent.BillingAddressID, vr.MerchantID); err == nil {
			ws.Addresses.Billing = address
		} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
	}
	if attempt.PaymentMethodBillingAddressID != nil {
		if address, err := deps.Store.FindAddress(ctx, *attempt.PaymentMethodBillingAddressID, vr.MerchantID); err == nil {
			ws.Addresses.PaymentMethodBilling = address
		} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
	}

	if opts.loadProfile {
		if intent.ProfileID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business profile not found for payment")
		}
		profile, err := deps.Store.FindBusinessProfile(ctx, *intent.ProfileID, vr.MerchantID)
		if err != nil {
			return nil, err
		}
		ws.Profile = profile
	}

	if opts.loadFraud {
		check, err := deps.Store.FindFraudCheck(ctx, vr.PaymentID, vr.MerchantID)
		if err == nil {
			ws.FraudCheck = check
		} else if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
	}

	if opts.loadMandates && intent.CustomerID != nil {
		mandates, err := deps.Store.FindActiveMandates(ctx, *intent.CustomerID, vr.MerchantID)
		if err != nil {
			return nil, err
		}
		ws.Mandates = mandates
	}

	return ws, nil
}
