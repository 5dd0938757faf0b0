package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

const (
	intentNaturalKeyConstraint  = "ux_payment_intents_payment_merchant"
	attemptNaturalKeyConstraint = "ux_payment_attempts_payment_merchant_attempt"
)

// CreateOperation provisions the intent and its first attempt. Repeating the
// call with the same payment identifier returns the original record
// unchanged; the unique constraint on the natural key backs the idempotency.
type CreateOperation struct{}

func (CreateOperation) Name() string { return "payment_create" }

func (CreateOperation) LockAction() locking.Action { return locking.ActionHold }

func (CreateOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
	if err := requireMerchant(merchant); err != nil {
		return nil, err
	}
	if req.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency := enums.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", req.Currency))
	}
	if req.CaptureMethod != "" {
		if _, err := enums.ParseCaptureMethod(req.CaptureMethod); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
	}
	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		paymentID = "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return &ValidateResult{
		MerchantID:    merchant.MerchantID(),
		PaymentID:     paymentID,
		StorageScheme: merchant.StorageScheme(),
	}, nil
}

// GetTracker assembles a fresh working set in memory. Nothing is persisted
// until UpdateTracker; a replayed create resolves against the stored row
// there.
func (CreateOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	currency := enums.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))
	captureMethod := enums.CaptureMethodAutomatic
	if req.CaptureMethod != "" {
		parsed, err := enums.ParseCaptureMethod(req.CaptureMethod)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		captureMethod = parsed
	}

	attemptID := vr.PaymentID + "_1"
	intent := &models.PaymentIntent{
		ID:              uuid.New(),
		PaymentID:       vr.PaymentID,
		MerchantID:      vr.MerchantID,
		Status:          enums.IntentStatusRequiresConfirmation,
		AmountMinor:     req.AmountMinor,
		Currency:        currency,
		CaptureMethod:   captureMethod,
		ActiveAttemptID: &attemptID,
		CustomerID:      req.CustomerID,
		Description:     req.Description,
		UpdatedBy:       vr.StorageScheme.String(),
	}
	if req.ProfileID != nil {
		profileID, err := uuid.Parse(*req.ProfileID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile_id must be a uuid")
		}
		intent.ProfileID = &profileID
	}

	attempt := &models.PaymentAttempt{
		ID:          uuid.New(),
		AttemptID:   attemptID,
		PaymentID:   vr.PaymentID,
		MerchantID:  vr.MerchantID,
		Status:      enums.AttemptStatusStarted,
		AmountMinor: req.AmountMinor,
		Currency:    currency,
		UpdatedBy:   vr.StorageScheme.String(),
	}
	if req.Connector != "" {
		connector := strings.ToLower(strings.TrimSpace(req.Connector))
		attempt.Connector = &connector
	}
	if req.CardReference != nil {
		attempt.CardReference = req.CardReference
	}

	ws := &WorkingSet{
		Flow:        FlowPayment,
		Intent:      intent,
		Attempt:     attempt,
		AmountMinor: req.AmountMinor,
		Currency:    currency,
	}
	ws.Addresses.Shipping = addressFromInput(req.Shipping, vr.MerchantID, req.CustomerID)
	ws.Addresses.Billing = addressFromInput(req.Billing, vr.MerchantID, req.CustomerID)
	return ws, nil
}

// Domain is a no-op for create; the intent waits for confirmation.
func (CreateOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	return &DomainResult{
		IntentStatus:  enums.IntentStatusRequiresConfirmation,
		AttemptStatus: enums.AttemptStatusStarted,
	}, nil
}

// UpdateTracker persists the new rows. The intent insert runs outside any
// enclosing transaction: a unique violation must leave the connection usable
// so the compensating fetch can resolve the replay.
func (op CreateOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	if ws.Addresses.Shipping != nil {
		address, err := deps.Store.InsertAddress(ctx, nil, ws.Addresses.Shipping)
		if err != nil {
			return err
		}
		ws.Intent.ShippingAddressID = &address.ID
	}
	if ws.Addresses.Billing != nil {
		address, err := deps.Store.InsertAddress(ctx, nil, ws.Addresses.Billing)
		if err != nil {
			return err
		}
		ws.Intent.BillingAddressID = &address.ID
	}

	intent, createdNew, err := storage.InsertOrFetch(ctx, intentNaturalKeyConstraint,
		func(ctx context.Context) (*models.PaymentIntent, error) {
			return deps.Store.InsertPaymentIntent(ctx, nil, ws.Intent, vr.StorageScheme)
		},
		func(ctx context.Context) (*models.PaymentIntent, error) {
			return deps.Store.FindPaymentIntent(ctx, vr.PaymentID, vr.MerchantID, vr.StorageScheme)
		},
	)
	if err != nil {
		return err
	}
	ws.Intent = intent
	ws.CreatedNew = createdNew

	if createdNew {
		attempt, _, err := storage.InsertOrFetch(ctx, attemptNaturalKeyConstraint,
			func(ctx context.Context) (*models.PaymentAttempt, error) {
				return deps.Store.InsertPaymentAttempt(ctx, nil, ws.Attempt, vr.StorageScheme)
			},
			func(ctx context.Context) (*models.PaymentAttempt, error) {
				return deps.Store.FindPaymentAttempt(ctx, vr.PaymentID, vr.MerchantID, ws.Attempt.AttemptID, vr.StorageScheme)
			},
		)
		if err != nil {
			return err
		}
		ws.Attempt = attempt
	} else if intent.ActiveAttemptID != nil {
		attempt, err := deps.Store.FindPaymentAttempt(ctx, vr.PaymentID, vr.MerchantID, *intent.ActiveAttemptID, vr.StorageScheme)
		if err != nil {
			return err
		}
		ws.Attempt = attempt
	}

	snapshot := snapshotOf(op.Name(), ws, nil)
	snapshot.Replay = !createdNew
	return deps.Store.WithTx(ctx, func(tx *gorm.DB) error {
		return deps.Audit.Emit(ctx, tx, audit.DomainEvent{
			EventType:     enums.AuditPaymentCreated,
			AggregateType: enums.AggregatePaymentIntent,
			AggregateID:   vr.PaymentID,
			MerchantID:    vr.MerchantID,
			Data:          snapshot,
			Version:       1,
		})
	})
}

func addressFromInput(input *AddressInput, merchantID string, customerID *string) *models.Address {
	if input == nil {
		return nil
	}
	return &models.Address{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		CustomerID:  customerID,
		Line1:       input.Line1,
		Line2:       input.Line2,
		City:        input.City,
		State:       input.State,
		Zip:         input.Zip,
		Country:     input.Country,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		PhoneNumber: input.PhoneNumber,
		CountryCode: input.CountryCode,
	}
}
