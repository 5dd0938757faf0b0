package payments

import (
	"context"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

// RejectOperation is the local reject path: the merchant (typically on the
// back of a fraud screen) fails the payment without any connector call. The
// intent moves to failed with a merchant-decision marker; the attempt carries
// the fraud check's status and reason as its error fields.
type RejectOperation struct{}

func (RejectOperation) Name() string { return "payment_reject" }

func (RejectOperation) LockAction() locking.Action { return locking.ActionHold }

var rejectForbidden = []enums.IntentStatus{
	enums.IntentStatusCancelled,
	enums.IntentStatusFailed,
	enums.IntentStatusSucceeded,
	enums.IntentStatusProcessing,
}

func (RejectOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
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

func (op RejectOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation:   "reject",
		forbidden:   rejectForbidden,
		loadFraud:   true,
		loadProfile: true,
	})
}

// Domain computes the transition locally from the prior fraud check.
func (op RejectOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	result := &DomainResult{
		IntentStatus:  enums.IntentStatusFailed,
		AttemptStatus: enums.AttemptStatusFailure,
	}
	if ws.FraudCheck != nil {
		status := ws.FraudCheck.Status
		result.ErrorCode = &status
		result.ErrorMessage = ws.FraudCheck.Reason
	}
	return result, nil
}

func (op RejectOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	return persistTransition(ctx, deps, ws, vr,
		storage.IntentRejectUpdate{
			Status:           enums.IntentStatusFailed,
			MerchantDecision: enums.MerchantDecisionRejected,
			UpdatedBy:        vr.StorageScheme,
		},
		storage.AttemptRejectUpdate{
			Status:       enums.AttemptStatusFailure,
			ErrorCode:    domain.ErrorCode,
			ErrorMessage: domain.ErrorMessage,
			UpdatedBy:    vr.StorageScheme,
		},
		enums.AuditPaymentRejected,
		snapshotOf(op.Name(), ws, domain),
	)
}
