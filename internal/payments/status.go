package payments

import (
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
)

// intentStatusForAttempt folds a connector-reported attempt status into the
// merchant-facing intent status. Manual-capture authorizations park the
// intent at requires_capture; automatic capture treats an authorization as
// still in flight.
func intentStatusForAttempt(status enums.AttemptStatus, captureMethod enums.CaptureMethod) enums.IntentStatus {
	switch status {
	case enums.AttemptStatusCharged:
		return enums.IntentStatusSucceeded
	case enums.AttemptStatusAuthorized:
		if captureMethod == enums.CaptureMethodManual {
			return enums.IntentStatusRequiresCapture
		}
		return enums.IntentStatusProcessing
	case enums.AttemptStatusCaptureInitiated, enums.AttemptStatusPending:
		return enums.IntentStatusProcessing
	case enums.AttemptStatusAuthenticationPending:
		return enums.IntentStatusRequiresCustomerAction
	case enums.AttemptStatusVoided:
		return enums.IntentStatusCancelled
	case enums.AttemptStatusFailure:
		return enums.IntentStatusFailed
	case enums.AttemptStatusStarted:
		return enums.IntentStatusRequiresConfirmation
	default:
		return enums.IntentStatusProcessing
	}
}
