package enums

import "fmt"

// AuditAggregateType maps to the aggregate_type enum on audit_events.
type AuditAggregateType string

const (
	AggregatePaymentIntent  AuditAggregateType = "payment_intent"
	AggregatePaymentAttempt AuditAggregateType = "payment_attempt"
	AggregateCustomer       AuditAggregateType = "customer"
)

var validAuditAggregateTypes = []AuditAggregateType{
	AggregatePaymentIntent,
	AggregatePaymentAttempt,
	AggregateCustomer,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a AuditAggregateType) IsValid() bool {
	for _, candidate := range validAuditAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (a AuditAggregateType) String() string {
	return string(a)
}

// AuditEventType identifies the pipeline operation an audit event records.
type AuditEventType string

const (
	AuditPaymentCreated      AuditEventType = "payment.created"
	AuditPaymentConfirmed    AuditEventType = "payment.confirmed"
	AuditPaymentCaptured     AuditEventType = "payment.captured"
	AuditPaymentCancelled    AuditEventType = "payment.cancelled"
	AuditPaymentRejected     AuditEventType = "payment.rejected"
	AuditPaymentSynced       AuditEventType = "payment.synced"
	AuditPaymentAuthExpanded AuditEventType = "payment.authorization_expanded"
	AuditCustomerCreated     AuditEventType = "customer.created"
	AuditCustomerRedacted    AuditEventType = "customer.redacted"
)

var validAuditEventTypes = []AuditEventType{
	AuditPaymentCreated,
	AuditPaymentConfirmed,
	AuditPaymentCaptured,
	AuditPaymentCancelled,
	AuditPaymentRejected,
	AuditPaymentSynced,
	AuditPaymentAuthExpanded,
	AuditCustomerCreated,
	AuditCustomerRedacted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e AuditEventType) IsValid() bool {
	for _, candidate := range validAuditEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (e AuditEventType) String() string {
	return string(e)
}

// ParseAuditEventType converts raw input into an AuditEventType.
func ParseAuditEventType(value string) (AuditEventType, error) {
	for _, candidate := range validAuditEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit event type %q", value)
}
