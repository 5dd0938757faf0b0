package payments

import (
	"github.com/shopspring/decimal"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// PaymentResponse is the v1 response shape: flat fields, amounts in major
// units.
type PaymentResponse struct {
	PaymentID     string             `json:"payment_id"`
	MerchantID    string             `json:"merchant_id"`
	Status        enums.IntentStatus `json:"status"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      enums.Currency     `json:"currency"`
	CaptureMethod string             `json:"capture_method"`
	AttemptID     string             `json:"attempt_id,omitempty"`
	AttemptStatus string             `json:"attempt_status,omitempty"`
	Connector     *string            `json:"connector,omitempty"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	Description   *string            `json:"description,omitempty"`
	ErrorCode     *string            `json:"error_code,omitempty"`
	ErrorMessage  *string            `json:"error_message,omitempty"`
}

// AmountDetails nests the monetary fields in the v2 shape.
type AmountDetails struct {
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    enums.Currency  `json:"currency"`
}

// ErrorDetails nests the attempt error fields in the v2 shape.
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// PaymentResponseV2 is the v2 response shape, selected at startup by the
// response-schema feature flag.
type PaymentResponseV2 struct {
	ID            string             `json:"id"`
	MerchantID    string             `json:"merchant_id"`
	Status        enums.IntentStatus `json:"status"`
	AmountDetails AmountDetails      `json:"amount_details"`
	CaptureMethod string             `json:"capture_method"`
	ActiveAttempt *AttemptSummary    `json:"active_attempt,omitempty"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Error         *ErrorDetails      `json:"error,omitempty"`
}

// AttemptSummary is the attempt excerpt embedded in the v2 response.
type AttemptSummary struct {
	AttemptID string  `json:"attempt_id"`
	Status    string  `json:"status"`
	Connector *string `json:"connector,omitempty"`
}

// BuildResponse serializes the working set into whichever response schema the
// deployment is configured for.
func BuildResponse(ws *WorkingSet, useV2 bool) any {
	if useV2 {
		return buildResponseV2(ws)
	}
	return buildResponseV1(ws)
}

func buildResponseV1(ws *WorkingSet) *PaymentResponse {
	resp := &PaymentResponse{
		PaymentID:     ws.Intent.PaymentID,
		MerchantID:    ws.Intent.MerchantID,
		Status:        ws.Intent.Status,
		Amount:        ws.Intent.Amount(),
		Currency:      ws.Intent.Currency,
		CaptureMethod: ws.Intent.CaptureMethod.String(),
		CustomerID:    ws.Intent.CustomerID,
		Description:   ws.Intent.Description,
	}
	if ws.Attempt != nil {
		resp.AttemptID = ws.Attempt.AttemptID
		resp.AttemptStatus = ws.Attempt.Status.String()
		resp.Connector = ws.Attempt.Connector
		resp.ErrorCode = ws.Attempt.ErrorCode
		resp.ErrorMessage = ws.Attempt.ErrorMessage
	}
	return resp
}

func buildResponseV2(ws *WorkingSet) *PaymentResponseV2 {
	resp := &PaymentResponseV2{
		ID:         ws.Intent.PaymentID,
		MerchantID: ws.Intent.MerchantID,
		Status:     ws.Intent.Status,
		AmountDetails: AmountDetails{
			Amount:      ws.Intent.Amount(),
			AmountMinor: ws.Intent.AmountMinor,
			Currency:    ws.Intent.Currency,
		},
		CaptureMethod: ws.Intent.CaptureMethod.String(),
		CustomerID:    ws.Intent.CustomerID,
		Description:   ws.Intent.Description,
	}
	if ws.Attempt != nil {
		resp.ActiveAttempt = &AttemptSummary{
			AttemptID: ws.Attempt.AttemptID,
			Status:    ws.Attempt.Status.String(),
			Connector: ws.Attempt.Connector,
		}
		if ws.Attempt.ErrorCode != nil {
			details := &ErrorDetails{Code: *ws.Attempt.ErrorCode}
			if ws.Attempt.ErrorMessage != nil {
				details.Message = *ws.Attempt.ErrorMessage
			}
			resp.Error = details
		}
	}
	return resp
}
