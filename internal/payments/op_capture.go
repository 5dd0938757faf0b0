package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

// CaptureOperation settles a previously authorized payment. Only an intent
// parked at requires_capture may proceed.
type CaptureOperation struct{}

func (CaptureOperation) Name() string { return "payment_capture" }

func (CaptureOperation) LockAction() locking.Action { return locking.ActionHold }

var captureForbidden = []enums.IntentStatus{
	enums.IntentStatusRequiresPaymentMethod,
	enums.IntentStatusRequiresConfirmation,
	enums.IntentStatusRequiresCustomerAction,
	enums.IntentStatusProcessing,
	enums.IntentStatusSucceeded,
	enums.IntentStatusFailed,
	enums.IntentStatusCancelled,
}

func (CaptureOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
	if err := requireMerchant(merchant); err != nil {
		return nil, err
	}
	paymentID, err := requirePaymentID(req)
	if err != nil {
		return nil, err
	}
	if req.AmountMinor < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount_to_capture cannot be negative")
	}
	return &ValidateResult{
		MerchantID:    merchant.MerchantID(),
		PaymentID:     paymentID,
		StorageScheme: merchant.StorageScheme(),
	}, nil
}

func (op CaptureOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation: "capture",
		forbidden: captureForbidden,
	})
}

func (op CaptureOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	if ws.Attempt.ConnectorTransactionID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has no connector transaction to capture")
	}
	adapter, err := deps.Connectors.Resolve(resolveConnectorName(req, ws))
	if err != nil {
		return nil, err
	}

	amount := ws.AmountMinor
	if req.AmountMinor > 0 {
		if req.AmountMinor > ws.AmountMinor {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount_to_capture exceeds the authorized amount")
		}
		amount = req.AmountMinor
	}

	result, err := adapter.Capture(ctx, connectors.CaptureRequest{
		MerchantID:             ws.Intent.MerchantID,
		PaymentID:              ws.Intent.PaymentID,
		ConnectorTransactionID: *ws.Attempt.ConnectorTransactionID,
		AmountMinor:            amount,
		Currency:               ws.Currency,
	})
	if err != nil {
		return nil, err
	}

	return &DomainResult{
		IntentStatus:           intentStatusForAttempt(result.Status, ws.Intent.CaptureMethod),
		AttemptStatus:          result.Status,
		ConnectorTransactionID: result.ConnectorTransactionID,
		ErrorCode:              result.ErrorCode,
		ErrorMessage:           result.ErrorMessage,
	}, nil
}

func (op CaptureOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	return persistTransition(ctx, deps, ws, vr,
		storage.IntentStatusUpdate{
			Status:    domain.IntentStatus,
			UpdatedBy: vr.StorageScheme,
		},
		storage.AttemptResponseUpdate{
			Status:                 domain.AttemptStatus,
			ConnectorTransactionID: domain.ConnectorTransactionID,
			ErrorCode:              domain.ErrorCode,
			ErrorMessage:           domain.ErrorMessage,
			UpdatedBy:              vr.StorageScheme,
		},
		enums.AuditPaymentCaptured,
		snapshotOf(op.Name(), ws, domain),
	)
}
