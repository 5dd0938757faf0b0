package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

// CancelOperation voids an uncaptured payment at the connector. Contrast with
// RejectOperation, which fails the payment locally without a connector call.
type CancelOperation struct{}

func (CancelOperation) Name() string { return "payment_cancel" }

func (CancelOperation) LockAction() locking.Action { return locking.ActionHold }

var cancelForbidden = []enums.IntentStatus{
	enums.IntentStatusSucceeded,
	enums.IntentStatusFailed,
	enums.IntentStatusCancelled,
	enums.IntentStatusProcessing,
}

func (CancelOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
	if err := requireMerchant(merchant); err != nil {
		return nil, err
	}
	paymentID, err := requirePaymentID(req)
	if err != nil {
		return nil, err
	}
	return &ValidateResult{
		MerchantID:    merchant.MerchantID(),
		PaymentID:     paymentID,
		StorageScheme: merchant.StorageScheme(),
	}, nil
}

func (op CancelOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation: "cancel",
		forbidden: cancelForbidden,
	})
}

// Domain voids through the connector when an authorization reached it; a
// payment that never left the switch is voided locally.
func (op CancelOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	if ws.Attempt.ConnectorTransactionID == nil {
		return &DomainResult{
			IntentStatus:  enums.IntentStatusCancelled,
			AttemptStatus: enums.AttemptStatusVoided,
		}, nil
	}

	adapter, err := deps.Connectors.Resolve(resolveConnectorName(req, ws))
	if err != nil {
		return nil, err
	}
	result, err := adapter.Void(ctx, connectors.VoidRequest{
		MerchantID:             ws.Intent.MerchantID,
		PaymentID:              ws.Intent.PaymentID,
		ConnectorTransactionID: *ws.Attempt.ConnectorTransactionID,
		CancellationReason:     req.CancellationReason,
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

func (op CancelOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	return persistTransition(ctx, deps, ws, vr,
		storage.IntentStatusUpdate{
			Status:    domain.IntentStatus,
			UpdatedBy: vr.StorageScheme,
		},
		storage.AttemptResponseUpdate{
			Status:       domain.AttemptStatus,
			ErrorCode:    domain.ErrorCode,
			ErrorMessage: domain.ErrorMessage,
			UpdatedBy:    vr.StorageScheme,
		},
		enums.AuditPaymentCancelled,
		snapshotOf(op.Name(), ws, domain),
	)
}
