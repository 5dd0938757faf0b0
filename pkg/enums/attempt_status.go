package enums

import "fmt"

// AttemptStatus tracks the connector-facing lifecycle of a payment attempt,
// independent from the intent lifecycle.
type AttemptStatus string

const (
	AttemptStatusStarted               AttemptStatus = "started"
	AttemptStatusAuthenticationPending AttemptStatus = "authentication_pending"
	AttemptStatusAuthorized            AttemptStatus = "authorized"
	AttemptStatusCaptureInitiated      AttemptStatus = "capture_initiated"
	AttemptStatusCharged               AttemptStatus = "charged"
	AttemptStatusPending               AttemptStatus = "pending"
	AttemptStatusFailure               AttemptStatus = "failure"
	AttemptStatusVoided                AttemptStatus = "voided"
)

var validAttemptStatuses = []AttemptStatus{
	AttemptStatusStarted,
	AttemptStatusAuthenticationPending,
	AttemptStatusAuthorized,
	AttemptStatusCaptureInitiated,
	AttemptStatusCharged,
	AttemptStatusPending,
	AttemptStatusFailure,
	AttemptStatusVoided,
}

// String implements fmt.Stringer.
func (s AttemptStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AttemptStatus.
func (s AttemptStatus) IsValid() bool {
	for _, candidate := range validAttemptStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAttemptStatus converts raw input into an AttemptStatus.
func ParseAttemptStatus(value string) (AttemptStatus, error) {
	for _, candidate := range validAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attempt status %q", value)
}
