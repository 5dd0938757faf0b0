package storage

import (
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// IntentUpdate is the closed set of typed update statements that may be
// applied to a payment intent. Identity fields (payment_id, merchant_id) are
// never part of an update.
type IntentUpdate interface {
	intentColumns() map[string]any
}

// IntentStatusUpdate moves the intent to a new lifecycle status.
type IntentStatusUpdate struct {
	Status    enums.IntentStatus
	UpdatedBy enums.StorageScheme
}

func (u IntentStatusUpdate) intentColumns() map[string]any {
	return map[string]any{
		"status":     u.Status,
		"updated_by": u.UpdatedBy.String(),
	}
}

// IntentRejectUpdate fails the intent with a merchant-decision marker.
type IntentRejectUpdate struct {
	Status           enums.IntentStatus
	MerchantDecision enums.MerchantDecision
	UpdatedBy        enums.StorageScheme
}

func (u IntentRejectUpdate) intentColumns() map[string]any {
	return map[string]any{
		"status":            u.Status,
		"merchant_decision": u.MerchantDecision.String(),
		"updated_by":        u.UpdatedBy.String(),
	}
}

// IntentResponseUpdate records the outcome of a connector round trip.
type IntentResponseUpdate struct {
	Status          enums.IntentStatus
	ActiveAttemptID *string
	UpdatedBy       enums.StorageScheme
}

func (u IntentResponseUpdate) intentColumns() map[string]any {
	cols := map[string]any{
		"status":     u.Status,
		"updated_by": u.UpdatedBy.String(),
	}
	if u.ActiveAttemptID != nil {
		cols["active_attempt_id"] = *u.ActiveAttemptID
	}
	return cols
}

// IntentAmountUpdate expands the authorized amount (incremental authorization).
type IntentAmountUpdate struct {
	AmountMinor int64
	UpdatedBy   enums.StorageScheme
}

func (u IntentAmountUpdate) intentColumns() map[string]any {
	return map[string]any{
		"amount_minor": u.AmountMinor,
		"updated_by":   u.UpdatedBy.String(),
	}
}

// AttemptUpdate is the closed set of typed update statements for attempts.
type AttemptUpdate interface {
	attemptColumns() map[string]any
}

// AttemptStatusUpdate moves the attempt to a new status.
type AttemptStatusUpdate struct {
	Status    enums.AttemptStatus
	UpdatedBy enums.StorageScheme
}

func (u AttemptStatusUpdate) attemptColumns() map[string]any {
	return map[string]any{
		"status":     u.Status,
		"updated_by": u.UpdatedBy.String(),
	}
}

// AttemptRejectUpdate fails the attempt, carrying error fields copied from a
// prior fraud check when one exists.
type AttemptRejectUpdate struct {
	Status       enums.AttemptStatus
	ErrorCode    *string
	ErrorMessage *string
	UpdatedBy    enums.StorageScheme
}

func (u AttemptRejectUpdate) attemptColumns() map[string]any {
	cols := map[string]any{
		"status":     u.Status,
		"updated_by": u.UpdatedBy.String(),
	}
	if u.ErrorCode != nil {
		cols["error_code"] = *u.ErrorCode
	}
	if u.ErrorMessage != nil {
		cols["error_message"] = *u.ErrorMessage
	}
	return cols
}

// AttemptResponseUpdate records a connector response on the attempt.
type AttemptResponseUpdate struct {
	Status                 enums.AttemptStatus
	ConnectorTransactionID *string
	CardReference          *string
	ErrorCode              *string
	ErrorMessage           *string
	UpdatedBy              enums.StorageScheme
}

func (u AttemptResponseUpdate) attemptColumns() map[string]any {
	cols := map[string]any{
		"status":     u.Status,
		"updated_by": u.UpdatedBy.String(),
	}
	if u.ConnectorTransactionID != nil {
		cols["connector_transaction_id"] = *u.ConnectorTransactionID
	}
	if u.CardReference != nil {
		cols["card_reference"] = *u.CardReference
	}
	if u.ErrorCode != nil {
		cols["error_code"] = *u.ErrorCode
	}
	if u.ErrorMessage != nil {
		cols["error_message"] = *u.ErrorMessage
	}
	return cols
}

// AttemptAmountUpdate expands the authorized amount on the attempt.
type AttemptAmountUpdate struct {
	AmountMinor int64
	UpdatedBy   enums.StorageScheme
}

func (u AttemptAmountUpdate) attemptColumns() map[string]any {
	return map[string]any{
		"amount_minor": u.AmountMinor,
		"updated_by":   u.UpdatedBy.String(),
	}
}

// AddressUpdate is the closed set of typed address updates.
type AddressUpdate interface {
	addressColumns() map[string]any
}

const redactedValue = "Redacted"

// AddressRedactionUpdate overwrites every PII field; used when a customer is
// deleted.
type AddressRedactionUpdate struct{}

func (AddressRedactionUpdate) addressColumns() map[string]any {
	return map[string]any{
		"line1":        redactedValue,
		"line2":        redactedValue,
		"line3":        redactedValue,
		"city":         redactedValue,
		"state":        redactedValue,
		"zip":          redactedValue,
		"country":      redactedValue,
		"first_name":   redactedValue,
		"last_name":    redactedValue,
		"phone_number": redactedValue,
		"country_code": redactedValue,
	}
}

// CustomerUpdate is the closed set of typed customer updates.
type CustomerUpdate interface {
	customerColumns() map[string]any
}

// CustomerDetailsUpdate replaces the mutable profile fields.
type CustomerDetailsUpdate struct {
	Name             *string
	Email            *string
	Phone            *string
	PhoneCountryCode *string
	Description      *string
}

func (u CustomerDetailsUpdate) customerColumns() map[string]any {
	cols := map[string]any{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.Phone != nil {
		cols["phone"] = *u.Phone
	}
	if u.PhoneCountryCode != nil {
		cols["phone_country_code"] = *u.PhoneCountryCode
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	return cols
}

// CustomerRedactionUpdate overwrites the customer's PII.
type CustomerRedactionUpdate struct{}

func (CustomerRedactionUpdate) customerColumns() map[string]any {
	return map[string]any{
		"name":               redactedValue,
		"email":              redactedValue,
		"phone":              redactedValue,
		"phone_country_code": redactedValue,
		"description":        redactedValue,
	}
}
