package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// auditSnapshot is the working-set excerpt every payment audit event carries.
type auditSnapshot struct {
	Operation     string              `json:"operation"`
	PaymentID     string              `json:"payment_id"`
	MerchantID    string              `json:"merchant_id"`
	AttemptID     string              `json:"attempt_id,omitempty"`
	IntentStatus  enums.IntentStatus  `json:"intent_status"`
	AttemptStatus enums.AttemptStatus `json:"attempt_status,omitempty"`
	AmountMinor   int64               `json:"amount"`
	Currency      enums.Currency      `json:"currency"`
	Connector     *string             `json:"connector,omitempty"`
	ErrorCode     *string             `json:"error_code,omitempty"`
	ErrorMessage  *string             `json:"error_message,omitempty"`
	Replay        bool                `json:"idempotent_replay,omitempty"`
}

func snapshotOf(operation string, ws *WorkingSet, domain *DomainResult) auditSnapshot {
	snap := auditSnapshot{
		Operation:   operation,
		AmountMinor: ws.AmountMinor,
		Currency:    ws.Currency,
	}
	if ws.Intent != nil {
		snap.PaymentID = ws.Intent.PaymentID
		snap.MerchantID = ws.Intent.MerchantID
		snap.IntentStatus = ws.Intent.Status
	}
	if ws.Attempt != nil {
		snap.AttemptID = ws.Attempt.AttemptID
		snap.AttemptStatus = ws.Attempt.Status
		snap.Connector = ws.Attempt.Connector
	}
	if domain != nil {
		snap.IntentStatus = domain.IntentStatus
		snap.AttemptStatus = domain.AttemptStatus
		snap.ErrorCode = domain.ErrorCode
		snap.ErrorMessage = domain.ErrorMessage
	}
	return snap
}

// persistTransition is the shared UpdateTracker body: apply the intent update
// first, then the attempt update, then append the audit event, all inside one
// transaction. The intent-before-attempt ordering is part of the contract and
// covered by tests.
func persistTransition(
	ctx context.Context,
	deps *Deps,
	ws *WorkingSet,
	vr *ValidateResult,
	intentUpdate storage.IntentUpdate,
	attemptUpdate storage.AttemptUpdate,
	eventType enums.AuditEventType,
	snapshot auditSnapshot,
) error {
	return deps.Store.WithTx(ctx, func(tx *gorm.DB) error {
		if intentUpdate != nil {
			updated, err := deps.Store.UpdatePaymentIntent(ctx, tx, ws.Intent, intentUpdate, vr.StorageScheme)
			if err != nil {
				return err
			}
			ws.Intent = updated
		}
		if attemptUpdate != nil && ws.Attempt != nil {
			updated, err := deps.Store.UpdatePaymentAttempt(ctx, tx, ws.Attempt, attemptUpdate, vr.StorageScheme)
			if err != nil {
				return err
			}
			ws.Attempt = updated
		}
		return deps.Audit.Emit(ctx, tx, audit.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePaymentIntent,
			AggregateID:   vr.PaymentID,
			MerchantID:    vr.MerchantID,
			Data:          snapshot,
			Version:       1,
		})
	})
}
