package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

// IncrementalAuthorizationOperation raises the authorized amount of a payment
// parked at requires_capture. The amount can only grow; lowering it is a
// capture concern.
type IncrementalAuthorizationOperation struct{}

func (IncrementalAuthorizationOperation) Name() string {
	return "payment_incremental_authorization"
}

func (IncrementalAuthorizationOperation) LockAction() locking.Action { return locking.ActionHold }

var incrementalAuthForbidden = []enums.IntentStatus{
	enums.IntentStatusRequiresPaymentMethod,
	enums.IntentStatusRequiresConfirmation,
	enums.IntentStatusRequiresCustomerAction,
	enums.IntentStatusProcessing,
	enums.IntentStatusSucceeded,
	enums.IntentStatusFailed,
	enums.IntentStatusCancelled,
}

func (IncrementalAuthorizationOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
	if err := requireMerchant(merchant); err != nil {
		return nil, err
	}
	paymentID, err := requirePaymentID(req)
	if err != nil {
		return nil, err
	}
	if req.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return &ValidateResult{
		MerchantID:    merchant.MerchantID(),
		PaymentID:     paymentID,
		StorageScheme: merchant.StorageScheme(),
	}, nil
}

func (op IncrementalAuthorizationOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation: "expand the authorization of",
		forbidden: incrementalAuthForbidden,
	})
}

// Domain validates the expansion locally; the authorization stays with the
// connector untouched until capture.
func (op IncrementalAuthorizationOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	if req.AmountMinor <= ws.Intent.AmountMinor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must exceed the currently authorized amount")
	}
	ws.AmountMinor = req.AmountMinor
	return &DomainResult{
		IntentStatus:  ws.Intent.Status,
		AttemptStatus: ws.Attempt.Status,
	}, nil
}

func (op IncrementalAuthorizationOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	return persistTransition(ctx, deps, ws, vr,
		storage.IntentAmountUpdate{
			AmountMinor: ws.AmountMinor,
			UpdatedBy:   vr.StorageScheme,
		},
		storage.AttemptAmountUpdate{
			AmountMinor: ws.AmountMinor,
			UpdatedBy:   vr.StorageScheme,
		},
		enums.AuditPaymentAuthExpanded,
		snapshotOf(op.Name(), ws, domain),
	)
}
