package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

// SyncOperation refreshes local state from the connector. It never blocks
// other pipeline runs, so it skips the payment lock.
type SyncOperation struct{}

func (SyncOperation) Name() string { return "payment_sync" }

func (SyncOperation) LockAction() locking.Action { return locking.ActionNotApplicable }

func (SyncOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
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

// GetTracker runs with an empty forbidden set; a payment in any status may be
// synced.
func (op SyncOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation: "sync",
	})
}

// Domain asks the connector for the authoritative state. Terminal intents and
// attempts that never reached a connector report their stored state, unless
// the caller forces a connector round trip.
func (op SyncOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	current := &DomainResult{
		IntentStatus:  ws.Intent.Status,
		AttemptStatus: ws.Attempt.Status,
		ErrorCode:     ws.Attempt.ErrorCode,
		ErrorMessage:  ws.Attempt.ErrorMessage,
	}
	if ws.Attempt.ConnectorTransactionID == nil {
		return current, nil
	}
	if ws.Intent.Status.IsTerminal() && !req.ForceSync {
		return current, nil
	}

	adapter, err := deps.Connectors.Resolve(resolveConnectorName(req, ws))
	if err != nil {
		return nil, err
	}
	result, err := adapter.Sync(ctx, connectors.SyncRequest{
		MerchantID:             ws.Intent.MerchantID,
		PaymentID:              ws.Intent.PaymentID,
		ConnectorTransactionID: *ws.Attempt.ConnectorTransactionID,
		ForceSync:              req.ForceSync,
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

func (op SyncOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	var intentUpdate storage.IntentUpdate
	var attemptUpdate storage.AttemptUpdate
	if domain.IntentStatus != ws.Intent.Status {
		intentUpdate = storage.IntentStatusUpdate{
			Status:    domain.IntentStatus,
			UpdatedBy: vr.StorageScheme,
		}
	}
	if domain.AttemptStatus != ws.Attempt.Status {
		attemptUpdate = storage.AttemptResponseUpdate{
			Status:       domain.AttemptStatus,
			ErrorCode:    domain.ErrorCode,
			ErrorMessage: domain.ErrorMessage,
			UpdatedBy:    vr.StorageScheme,
		}
	}
	return persistTransition(ctx, deps, ws, vr,
		intentUpdate,
		attemptUpdate,
		enums.AuditPaymentSynced,
		snapshotOf(op.Name(), ws, domain),
	)
}
