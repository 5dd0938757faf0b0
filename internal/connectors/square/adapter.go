// Package square adapts the Square payments API to the connector surface.
package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/pkg/config"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

const (
	connectorName = "square"

	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errInvalidEnv          = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Adapter drives Square payments with centralized auth, logging, idempotency
// and error mapping.
type Adapter struct {
	sdk    *sqclient.Client
	env    string
	logger *logger.Logger
}

// New initializes the Square adapter and validates the credentials.
func New(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Adapter, error) {
	env := cfg.Environment()
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidEnv
	}
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)

	a := &Adapter{sdk: sdk, env: env, logger: logg}
	if logg != nil {
		logg.Info(ctx, "square connector initialized")
	}
	return a, nil
}

func (a *Adapter) Name() string {
	return connectorName
}

func (a *Adapter) Authorize(ctx context.Context, req connectors.AuthorizeRequest) (*connectors.TransactionResult, error) {
	sourceID := ""
	if req.CardReference != nil {
		sourceID = *req.CardReference
	}
	autocomplete := req.CaptureMethod.IsAutomatic()
	createReq := &sq.CreatePaymentRequest{
		SourceID:       sourceID,
		IdempotencyKey: idempotencyKey(req.PaymentID, req.AttemptID),
		AmountMoney:    money(req.AmountMinor, req.Currency.String()),
		Autocomplete:   &autocomplete,
		ReferenceID:    ptrString(req.PaymentID),
	}
	a.log(ctx, "request", "authorize", map[string]any{
		"payment_id": req.PaymentID,
		"attempt_id": req.AttemptID,
		"amount":     req.AmountMinor,
	})

	resp, err := a.sdk.Payments.Create(ctx, createReq)
	if err != nil {
		a.log(ctx, "error", "authorize", map[string]any{"error": err.Error()})
		return nil, a.mapError(err, "authorize")
	}
	return a.result(ctx, "authorize", resp.GetPayment()), nil
}

func (a *Adapter) Capture(ctx context.Context, req connectors.CaptureRequest) (*connectors.TransactionResult, error) {
	a.log(ctx, "request", "capture", map[string]any{
		"payment_id":     req.PaymentID,
		"transaction_id": req.ConnectorTransactionID,
	})

	resp, err := a.sdk.Payments.Complete(ctx, &sq.CompletePaymentRequest{
		PaymentID: req.ConnectorTransactionID,
	})
	if err != nil {
		a.log(ctx, "error", "capture", map[string]any{"error": err.Error()})
		return nil, a.mapError(err, "capture")
	}
	return a.result(ctx, "capture", resp.GetPayment()), nil
}

func (a *Adapter) Void(ctx context.Context, req connectors.VoidRequest) (*connectors.TransactionResult, error) {
	a.log(ctx, "request", "void", map[string]any{
		"payment_id":     req.PaymentID,
		"transaction_id": req.ConnectorTransactionID,
	})

	resp, err := a.sdk.Payments.Cancel(ctx, &sq.CancelPaymentsRequest{
		PaymentID: req.ConnectorTransactionID,
	})
	if err != nil {
		a.log(ctx, "error", "void", map[string]any{"error": err.Error()})
		return nil, a.mapError(err, "void")
	}
	return a.result(ctx, "void", resp.GetPayment()), nil
}

func (a *Adapter) Sync(ctx context.Context, req connectors.SyncRequest) (*connectors.TransactionResult, error) {
	a.log(ctx, "request", "sync", map[string]any{
		"payment_id":     req.PaymentID,
		"transaction_id": req.ConnectorTransactionID,
		"force":          req.ForceSync,
	})

	resp, err := a.sdk.Payments.Get(ctx, &sq.GetPaymentsRequest{
		PaymentID: req.ConnectorTransactionID,
	})
	if err != nil {
		a.log(ctx, "error", "sync", map[string]any{"error": err.Error()})
		return nil, a.mapError(err, "sync")
	}
	return a.result(ctx, "sync", resp.GetPayment()), nil
}

func (a *Adapter) result(ctx context.Context, op string, payment *sq.Payment) *connectors.TransactionResult {
	status := stringValue(payment.GetStatus())
	result := &connectors.TransactionResult{
		Status:                 mapPaymentStatus(status),
		ConnectorTransactionID: payment.GetID(),
	}
	a.log(ctx, "response", op, map[string]any{
		"transaction_id": stringValue(payment.GetID()),
		"status":         status,
	})
	return result
}

func idempotencyKey(paymentID, attemptID string) string {
	if paymentID != "" && attemptID != "" {
		return fmt.Sprintf("%s-%s", paymentID, attemptID)
	}
	return uuid.NewString()
}

func (a *Adapter) log(ctx context.Context, phase, op string, fields map[string]any) {
	if a == nil || a.logger == nil {
		return
	}
	logFields := map[string]any{
		"connector": connectorName,
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = a.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		a.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		a.logger.Info(ctx, fmt.Sprintf("square %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "cvv", "cvc", "secret"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (a *Adapter) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(codeForStatus(apiErr.StatusCode), err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

// mapPaymentStatus normalizes Square payment statuses into attempt statuses.
func mapPaymentStatus(status string) enums.AttemptStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "APPROVED":
		return enums.AttemptStatusAuthorized
	case "COMPLETED":
		return enums.AttemptStatusCharged
	case "CANCELED":
		return enums.AttemptStatusVoided
	case "FAILED":
		return enums.AttemptStatusFailure
	case "PENDING":
		return enums.AttemptStatusPending
	default:
		return enums.AttemptStatusPending
	}
}

func money(amountMinor int64, currency string) *sq.Money {
	if amountMinor == 0 {
		return nil
	}
	cur := sq.Currency(currency)
	return &sq.Money{
		Amount:   &amountMinor,
		Currency: &cur,
	}
}

func ptrString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
