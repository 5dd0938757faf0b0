package payments

import (
	"context"
	"strings"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
)

const defaultConnector = "square"

// ConfirmOperation drives the authorization call against the connector.
type ConfirmOperation struct{}

func (ConfirmOperation) Name() string { return "payment_confirm" }

func (ConfirmOperation) LockAction() locking.Action { return locking.ActionHold }

var confirmForbidden = []enums.IntentStatus{
	enums.IntentStatusSucceeded,
	enums.IntentStatusFailed,
	enums.IntentStatusCancelled,
	enums.IntentStatusProcessing,
	enums.IntentStatusRequiresCapture,
}

func (ConfirmOperation) ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error) {
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

func (op ConfirmOperation) GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error) {
	return loadWorkingSet(ctx, deps, vr, trackerOptions{
		operation: "confirm",
		forbidden: confirmForbidden,
	})
}

// Domain tokenizes the card when raw card data rides on the request, then
// authorizes through the attempt's connector.
func (op ConfirmOperation) Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error) {
	cardReference := ws.Attempt.CardReference
	if req.CardReference != nil {
		cardReference = req.CardReference
	}
	if req.Card != nil {
		if deps.Vault == nil {
			return nil, pkgerrors.New(pkgerrors.CodeVault, "card vault is not configured")
		}
		customerID := ""
		if ws.Intent.CustomerID != nil {
			customerID = *ws.Intent.CustomerID
		}
		ref, err := deps.Vault.TokenizeCard(ctx, ws.Intent.MerchantID, customerID, *req.Card)
		if err != nil {
			return nil, err
		}
		cardReference = &ref
	}

	connectorName := resolveConnectorName(req, ws)
	adapter, err := deps.Connectors.Resolve(connectorName)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Authorize(ctx, connectors.AuthorizeRequest{
		MerchantID:    ws.Intent.MerchantID,
		PaymentID:     ws.Intent.PaymentID,
		AttemptID:     ws.Attempt.AttemptID,
		AmountMinor:   ws.AmountMinor,
		Currency:      ws.Currency,
		CaptureMethod: ws.Intent.CaptureMethod,
		CardReference: cardReference,
	})
	if err != nil {
		return nil, err
	}

	return &DomainResult{
		IntentStatus:           intentStatusForAttempt(result.Status, ws.Intent.CaptureMethod),
		AttemptStatus:          result.Status,
		ConnectorTransactionID: result.ConnectorTransactionID,
		CardReference:          cardReference,
		ErrorCode:              result.ErrorCode,
		ErrorMessage:           result.ErrorMessage,
	}, nil
}

func (op ConfirmOperation) UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error {
	attemptID := ws.Attempt.AttemptID
	return persistTransition(ctx, deps, ws, vr,
		storage.IntentResponseUpdate{
			Status:          domain.IntentStatus,
			ActiveAttemptID: &attemptID,
			UpdatedBy:       vr.StorageScheme,
		},
		storage.AttemptResponseUpdate{
			Status:                 domain.AttemptStatus,
			ConnectorTransactionID: domain.ConnectorTransactionID,
			CardReference:          domain.CardReference,
			ErrorCode:              domain.ErrorCode,
			ErrorMessage:           domain.ErrorMessage,
			UpdatedBy:              vr.StorageScheme,
		},
		enums.AuditPaymentConfirmed,
		snapshotOf(op.Name(), ws, domain),
	)
}

func resolveConnectorName(req *Request, ws *WorkingSet) string {
	if name := strings.TrimSpace(req.Connector); name != "" {
		return name
	}
	if ws.Attempt != nil && ws.Attempt.Connector != nil && *ws.Attempt.Connector != "" {
		return *ws.Attempt.Connector
	}
	return defaultConnector
}
