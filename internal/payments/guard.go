package payments

import (
	"fmt"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

// CheckTransition rejects an operation whose forbidden set contains the
// intent's current status. Pure; runs inside GetTracker before any mutation.
func CheckTransition(current enums.IntentStatus, forbidden []enums.IntentStatus, operation string) error {
	for _, status := range forbidden {
		if current == status {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("you cannot %s this payment because it has status %s", operation, current)).
				WithDetails(map[string]string{
					"operation":      operation,
					"current_status": current.String(),
				})
		}
	}
	return nil
}
