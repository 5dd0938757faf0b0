package payments

import (
	"context"
	"strings"

	"github.com/kestrelpay/switchboard-backend/internal/connectors"
	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/internal/vault"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

// MerchantContext is the authentication result the transport layer resolves
// before the pipeline runs. Read-only input to every phase.
type MerchantContext struct {
	Account  *models.MerchantAccount
	APIKeyID string
}

func (m MerchantContext) MerchantID() string {
	if m.Account == nil {
		return ""
	}
	return m.Account.MerchantID
}

func (m MerchantContext) StorageScheme() enums.StorageScheme {
	if m.Account == nil || !m.Account.StorageScheme.IsValid() {
		return enums.StorageSchemePostgresOnly
	}
	return m.Account.StorageScheme
}

// AddressInput is the inbound shape for any of the three address roles.
type AddressInput struct {
	Line1       *string `json:"line1,omitempty"`
	Line2       *string `json:"line2,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	Zip         *string `json:"zip,omitempty"`
	Country     *string `json:"country,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
}

// Request is the shared inbound shape for payment operations. Each operation
// validates the subset of fields it cares about.
type Request struct {
	PaymentID     string        `json:"payment_id,omitempty"`
	AmountMinor   int64         `json:"amount,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	CaptureMethod string        `json:"capture_method,omitempty"`
	Connector     string        `json:"connector,omitempty"`
	CustomerID    *string       `json:"customer_id,omitempty"`
	ProfileID     *string       `json:"profile_id,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Shipping      *AddressInput `json:"shipping,omitempty"`
	Billing       *AddressInput `json:"billing,omitempty"`

	Card          *vault.Card `json:"card,omitempty"`
	CardReference *string     `json:"card_reference,omitempty"`

	CancellationReason *string `json:"cancellation_reason,omitempty"`
	ForceSync          bool    `json:"force_sync,omitempty"`
}

// ValidateResult is the output of phase 1: the resolved identity the rest of
// the pipeline operates on.
type ValidateResult struct {
	MerchantID    string
	PaymentID     string
	StorageScheme enums.StorageScheme
	Requeue       bool
}

// DomainResult is the output of phase 3: the status transition and
// side-channel fields phase 4 persists.
type DomainResult struct {
	IntentStatus           enums.IntentStatus
	AttemptStatus          enums.AttemptStatus
	ConnectorTransactionID *string
	CardReference          *string
	ErrorCode              *string
	ErrorMessage           *string
}

// Deps bundles the collaborators the phases draw on. The pipeline owns one
// instance; operations never hold state between invocations.
type Deps struct {
	Store      storage.Store
	Audit      *audit.Service
	Connectors *connectors.Registry
	Vault      *vault.Client
	Logg       *logger.Logger
}

// Operation is one lifecycle action's four phase implementations. Variants
// are pure data+logic units dispatched through this interface; no shared
// mutable state exists between them.
type Operation interface {
	Name() string
	LockAction() locking.Action

	// ValidateRequest checks request shape and merchant scope. Pure; never
	// touches storage.
	ValidateRequest(req *Request, merchant MerchantContext) (*ValidateResult, error)

	// GetTracker loads and guards the working set. Read-only.
	GetTracker(ctx context.Context, deps *Deps, vr *ValidateResult, req *Request) (*WorkingSet, error)

	// Domain runs the business/connector logic and computes the transition.
	Domain(ctx context.Context, deps *Deps, ws *WorkingSet, req *Request) (*DomainResult, error)

	// UpdateTracker persists the transition through typed updates and emits
	// exactly one audit event, all inside one transaction.
	UpdateTracker(ctx context.Context, deps *Deps, ws *WorkingSet, domain *DomainResult, vr *ValidateResult) error
}

func requirePaymentID(req *Request) (string, error) {
	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment_id is required")
	}
	return paymentID, nil
}

func requireMerchant(merchant MerchantContext) error {
	if merchant.Account == nil || merchant.MerchantID() == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant context is required")
	}
	return nil
}
