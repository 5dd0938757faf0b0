package payments

import (
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// Flow discriminates the pipeline family an operation runs under. It carries
// no behavior of its own; it rides along with the working set for logging and
// audit payloads.
type Flow string

const (
	FlowPayment Flow = "payment"
)

// PaymentAddresses groups the three address roles a payment may reference.
type PaymentAddresses struct {
	Shipping             *models.Address
	Billing              *models.Address
	PaymentMethodBilling *models.Address
}

// EffectivePaymentMethodBilling resolves the billing address the connector
// sees. When the attempt carries no dedicated payment-method billing address
// and the business profile allows it, the intent's billing address stands in.
func (a PaymentAddresses) EffectivePaymentMethodBilling(useBillingFallback bool) *models.Address {
	if a.PaymentMethodBilling != nil {
		return a.PaymentMethodBilling
	}
	if useBillingFallback {
		return a.Billing
	}
	return nil
}

// WorkingSet is the transient per-request aggregate threaded through the
// pipeline phases. Assembled fresh in GetTracker, mutated only inside one
// invocation, never persisted directly; persistence goes through typed update
// statements.
type WorkingSet struct {
	Flow       Flow
	Intent     *models.PaymentIntent
	Attempt    *models.PaymentAttempt
	Addresses  PaymentAddresses
	Profile    *models.BusinessProfile
	FraudCheck *models.FraudCheck
	Mandates   []models.Mandate

	AmountMinor int64
	Currency    enums.Currency

	// CreatedNew marks a create run that inserted rows rather than replaying
	// an earlier create against the same natural key.
	CreatedNew bool
}

// PaymentID returns the logical payment identifier the working set is built
// around.
func (ws *WorkingSet) PaymentID() string {
	if ws == nil || ws.Intent == nil {
		return ""
	}
	return ws.Intent.PaymentID
}
